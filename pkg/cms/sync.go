package cms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Sternrassler/cms-client/pkg/client"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SyncService runs synchronisation jobs (/sync).
type SyncService struct {
	c *Client
}

// Start starts a sync job for target. Any cached read may be stale once
// the job runs, so the whole cache is cleared.
func (s *SyncService) Start(ctx context.Context, target string) (*SyncJob, error) {
	if err := validation.Validate(target,
		validation.Required,
		validation.In(SyncContent, SyncPeople, SyncAFAS, SyncAll),
	); err != nil {
		return nil, client.WrapValidation(validation.Errors{"target": err}, "invalid sync target")
	}

	var resp envelope[SyncJob]
	body := map[string]string{"target": target}
	if err := s.c.send(ctx, "sync.start", http.MethodPost, "/sync", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to start sync: %w", err)
	}

	s.c.invalidateAll("sync started")
	return &resp.Data, nil
}

// Status returns the current state of a sync job. Never cached.
func (s *SyncService) Status(ctx context.Context, jobID string) (*SyncJob, error) {
	if err := requireID("jobId", jobID); err != nil {
		return nil, err
	}

	var resp envelope[SyncJob]
	if err := s.c.get(ctx, "sync.status", "/sync/"+url.PathEscape(jobID), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get sync status: %w", err)
	}
	return &resp.Data, nil
}
