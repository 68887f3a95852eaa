package cms

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Sternrassler/cms-client/pkg/pagination"
)

// LocationService reads locations (/locations).
type LocationService struct {
	c *Client
}

// List returns one page of locations.
func (s *LocationService) List(ctx context.Context, page pagination.Request) (*pagination.Response[Location], error) {
	resp, err := list[Location](ctx, s.c, "locations.list", "/locations", nil, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return resp, nil
}

// Get returns a location by ID.
func (s *LocationService) Get(ctx context.Context, id string) (*Location, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}

	loc, err := getOne[Location](ctx, s.c, "locations.get", "/locations/"+url.PathEscape(id), map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return loc, nil
}
