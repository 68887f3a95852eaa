package cms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Sternrassler/cms-client/pkg/cache"
)

// SchedulerService controls scheduled jobs (/scheduler).
type SchedulerService struct {
	c *Client
}

// Jobs returns every scheduled job.
func (s *SchedulerService) Jobs(ctx context.Context) ([]ScheduledJob, error) {
	jobs, err := cached(ctx, s.c, cache.BuildKey("scheduler.jobs", nil), func(ctx context.Context) ([]ScheduledJob, error) {
		var resp envelope[[]ScheduledJob]
		if err := s.c.get(ctx, "scheduler.jobs", "/scheduler/jobs", nil, &resp); err != nil {
			return nil, err
		}
		return resp.Data, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled jobs: %w", err)
	}
	return jobs, nil
}

// Run triggers an immediate run of a job.
func (s *SchedulerService) Run(ctx context.Context, jobID string) (*JobRun, error) {
	if err := requireID("jobId", jobID); err != nil {
		return nil, err
	}

	var resp envelope[JobRun]
	path := fmt.Sprintf("/scheduler/jobs/%s/run", url.PathEscape(jobID))
	if err := s.c.send(ctx, "scheduler.run", http.MethodPost, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to run job: %w", err)
	}

	// lastRun/nextRun changed
	s.c.invalidate("scheduler")
	return &resp.Data, nil
}
