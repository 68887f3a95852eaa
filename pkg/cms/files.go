package cms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Sternrassler/cms-client/pkg/pagination"
)

// FileService manages uploaded files (/files).
type FileService struct {
	c *Client
}

// List returns one page of files.
func (s *FileService) List(ctx context.Context, page pagination.Request) (*pagination.Response[File], error) {
	resp, err := list[File](ctx, s.c, "files.list", "/files", nil, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return resp, nil
}

// Get returns file metadata by ID.
func (s *FileService) Get(ctx context.Context, id string) (*File, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}

	f, err := getOne[File](ctx, s.c, "files.get", "/files/"+url.PathEscape(id), map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return f, nil
}

// Delete removes a file.
func (s *FileService) Delete(ctx context.Context, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}

	if err := s.c.send(ctx, "files.delete", http.MethodDelete, "/files/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	s.c.invalidate("files")
	return nil
}
