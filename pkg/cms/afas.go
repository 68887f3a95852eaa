package cms

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Sternrassler/cms-client/pkg/pagination"
)

// AFASService exposes the AFAS HR integration (/afas).
type AFASService struct {
	c *Client
}

// Employees returns one page of employees imported from AFAS.
func (s *AFASService) Employees(ctx context.Context, page pagination.Request) (*pagination.Response[Employee], error) {
	resp, err := list[Employee](ctx, s.c, "afas.employees", "/afas/employees", nil, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list AFAS employees: %w", err)
	}
	return resp, nil
}

// SyncEmployees imports employees from AFAS. People, locations and
// time entries can all change, so the whole cache is cleared.
func (s *AFASService) SyncEmployees(ctx context.Context) (*SyncJob, error) {
	var resp envelope[SyncJob]
	if err := s.c.send(ctx, "afas.sync", http.MethodPost, "/afas/employees/sync", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to sync AFAS employees: %w", err)
	}

	s.c.invalidateAll("afas sync")
	return &resp.Data, nil
}
