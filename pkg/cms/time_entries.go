package cms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Sternrassler/cms-client/pkg/pagination"
)

// TimeEntryService manages time registrations (/time-entries).
type TimeEntryService struct {
	c *Client
}

// List returns one page of time entries.
func (s *TimeEntryService) List(ctx context.Context, filter TimeEntryFilter, page pagination.Request) (*pagination.Response[TimeEntry], error) {
	params, err := filterParams(filter)
	if err != nil {
		return nil, err
	}

	resp, err := list[TimeEntry](ctx, s.c, "time_entries.list", "/time-entries", params, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	return resp, nil
}

// Create registers a time entry.
func (s *TimeEntryService) Create(ctx context.Context, input TimeEntryInput) (*TimeEntry, error) {
	if err := validateInput(input, "time entry input"); err != nil {
		return nil, err
	}

	var resp envelope[TimeEntry]
	if err := s.c.send(ctx, "time_entries.create", http.MethodPost, "/time-entries", input, &resp); err != nil {
		return nil, fmt.Errorf("failed to create time entry: %w", err)
	}

	s.c.invalidate("time_entries")
	return &resp.Data, nil
}

// Delete removes a time entry.
func (s *TimeEntryService) Delete(ctx context.Context, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}

	if err := s.c.send(ctx, "time_entries.delete", http.MethodDelete, "/time-entries/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}

	s.c.invalidate("time_entries")
	return nil
}
