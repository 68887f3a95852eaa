package cms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Sternrassler/cms-client/pkg/pagination"
)

// DeploymentService manages site deployments (/deployments).
type DeploymentService struct {
	c *Client
}

// List returns one page of deployments.
func (s *DeploymentService) List(ctx context.Context, page pagination.Request) (*pagination.Response[Deployment], error) {
	resp, err := list[Deployment](ctx, s.c, "deployments.list", "/deployments", nil, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	return resp, nil
}

// Get returns a deployment by ID.
func (s *DeploymentService) Get(ctx context.Context, id string) (*Deployment, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}

	d, err := getOne[Deployment](ctx, s.c, "deployments.get", "/deployments/"+url.PathEscape(id), map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get deployment: %w", err)
	}
	return d, nil
}

// Trigger starts a deployment. A deployment republishes the site, so the
// whole cache is cleared.
func (s *DeploymentService) Trigger(ctx context.Context, input DeploymentInput) (*Deployment, error) {
	if err := validateInput(input, "deployment input"); err != nil {
		return nil, err
	}

	var resp envelope[Deployment]
	if err := s.c.send(ctx, "deployments.trigger", http.MethodPost, "/deployments", input, &resp); err != nil {
		return nil, fmt.Errorf("failed to trigger deployment: %w", err)
	}

	s.c.invalidateAll("deployment triggered")
	return &resp.Data, nil
}
