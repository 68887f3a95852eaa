package cms

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Sternrassler/cms-client/pkg/pagination"
)

// PeopleService reads the people directory (/people).
type PeopleService struct {
	c *Client
}

// List returns one page of people.
func (s *PeopleService) List(ctx context.Context, filter PeopleFilter, page pagination.Request) (*pagination.Response[Person], error) {
	params, err := filterParams(filter)
	if err != nil {
		return nil, err
	}

	resp, err := list[Person](ctx, s.c, "people.list", "/people", params, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	return resp, nil
}

// FetchAll returns every person matching filter.
func (s *PeopleService) FetchAll(ctx context.Context, filter PeopleFilter, cfg pagination.Config) ([]Person, error) {
	return pagination.FetchAll(ctx, func(ctx context.Context, req pagination.Request) (*pagination.Response[Person], error) {
		return s.List(ctx, filter, req)
	}, cfg)
}

// Get returns a person by ID.
func (s *PeopleService) Get(ctx context.Context, id string) (*Person, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}

	person, err := getOne[Person](ctx, s.c, "people.get", "/people/"+url.PathEscape(id), map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return person, nil
}

// Search finds people by name or email.
func (s *PeopleService) Search(ctx context.Context, query string, page pagination.Request) (*pagination.Response[Person], error) {
	query = strings.TrimSpace(query)
	if err := requireID("query", query); err != nil {
		return nil, err
	}

	resp, err := list[Person](ctx, s.c, "people.search", "/people/search", map[string]any{"q": query}, page)
	if err != nil {
		return nil, fmt.Errorf("failed to search people: %w", err)
	}
	return resp, nil
}
