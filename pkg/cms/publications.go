package cms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Sternrassler/cms-client/pkg/pagination"
)

// PublicationService manages publications (/publications).
type PublicationService struct {
	c *Client
}

// List returns one page of publications.
func (s *PublicationService) List(ctx context.Context, filter PublicationFilter, page pagination.Request) (*pagination.Response[Publication], error) {
	params, err := filterParams(filter)
	if err != nil {
		return nil, err
	}

	resp, err := list[Publication](ctx, s.c, "publications.list", "/publications", params, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list publications: %w", err)
	}
	return resp, nil
}

// Get returns a publication by ID.
func (s *PublicationService) Get(ctx context.Context, id string) (*Publication, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}

	pub, err := getOne[Publication](ctx, s.c, "publications.get", "/publications/"+url.PathEscape(id), map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get publication: %w", err)
	}
	return pub, nil
}

// Publish publishes a publication.
func (s *PublicationService) Publish(ctx context.Context, id string) (*Publication, error) {
	return s.transition(ctx, id, "publish")
}

// Unpublish withdraws a publication.
func (s *PublicationService) Unpublish(ctx context.Context, id string) (*Publication, error) {
	return s.transition(ctx, id, "unpublish")
}

func (s *PublicationService) transition(ctx context.Context, id, action string) (*Publication, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}

	var resp envelope[Publication]
	path := fmt.Sprintf("/publications/%s/%s", url.PathEscape(id), action)
	if err := s.c.send(ctx, "publications."+action, http.MethodPost, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to %s publication: %w", action, err)
	}

	// Publishing changes the status of the underlying content too.
	s.c.invalidate("publications", "content")
	return &resp.Data, nil
}
