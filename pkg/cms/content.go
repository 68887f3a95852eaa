package cms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Sternrassler/cms-client/pkg/pagination"
)

// ContentService manages content items (/content).
type ContentService struct {
	c *Client
}

// List returns one page of content items.
func (s *ContentService) List(ctx context.Context, filter ContentFilter, page pagination.Request) (*pagination.Response[Content], error) {
	params, err := filterParams(filter)
	if err != nil {
		return nil, err
	}

	resp, err := list[Content](ctx, s.c, "content.list", "/content", params, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	return resp, nil
}

// FetchAll returns every content item matching filter.
func (s *ContentService) FetchAll(ctx context.Context, filter ContentFilter, cfg pagination.Config) ([]Content, error) {
	return pagination.FetchAll(ctx, func(ctx context.Context, req pagination.Request) (*pagination.Response[Content], error) {
		return s.List(ctx, filter, req)
	}, cfg)
}

// Get returns a content item by ID.
func (s *ContentService) Get(ctx context.Context, id string) (*Content, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}

	content, err := getOne[Content](ctx, s.c, "content.get", "/content/"+url.PathEscape(id), map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return content, nil
}

// Create creates a content item.
func (s *ContentService) Create(ctx context.Context, input ContentInput) (*Content, error) {
	if err := validateInput(input, "content input"); err != nil {
		return nil, err
	}

	var resp envelope[Content]
	if err := s.c.send(ctx, "content.create", http.MethodPost, "/content", input, &resp); err != nil {
		return nil, fmt.Errorf("failed to create content: %w", err)
	}

	s.c.invalidate("content")
	return &resp.Data, nil
}

// Update replaces a content item.
func (s *ContentService) Update(ctx context.Context, id string, input ContentInput) (*Content, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	if err := validateInput(input, "content input"); err != nil {
		return nil, err
	}

	var resp envelope[Content]
	if err := s.c.send(ctx, "content.update", http.MethodPut, "/content/"+url.PathEscape(id), input, &resp); err != nil {
		return nil, fmt.Errorf("failed to update content: %w", err)
	}

	s.c.invalidate("content", "publications")
	return &resp.Data, nil
}

// Delete removes a content item.
func (s *ContentService) Delete(ctx context.Context, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}

	if err := s.c.send(ctx, "content.delete", http.MethodDelete, "/content/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}

	s.c.invalidate("content", "publications")
	return nil
}
