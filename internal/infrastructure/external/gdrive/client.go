// Package gdrive lists and downloads invoice PDFs from a Google Drive folder.
package gdrive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/garyjia/asset-tracker/internal/application/port"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

const listFields = googleapi.Field("nextPageToken, files(id, name, mimeType, modifiedTime)")

// Client implements port.DriveClient using the Drive v3 API
type Client struct {
	service *drive.Service
	logger  *zap.Logger
}

// NewClient creates a read-only Drive client from a service account or
// OAuth credentials file
func NewClient(ctx context.Context, credentialsFile string, logger *zap.Logger) (*Client, error) {
	opts := []option.ClientOption{option.WithScopes(drive.DriveReadonlyScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	return NewClientWithOptions(ctx, logger, opts...)
}

// NewClientWithOptions creates a Drive client from raw client options
func NewClientWithOptions(ctx context.Context, logger *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &Client{
		service: service,
		logger:  logger,
	}, nil
}

// ListPDFs lists every PDF below folderID, descending into subfolders
func (c *Client) ListPDFs(ctx context.Context, folderID string) ([]entity.DriveFile, error) {
	folder, err := c.service.Files.Get(folderID).Fields("id, name, mimeType").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get folder %s: %w", folderID, err)
	}
	if folder.MimeType != entity.MimeTypeFolder {
		return nil, fmt.Errorf("%s is not a folder", folderID)
	}

	var files []entity.DriveFile
	visited := map[string]bool{}
	if err := c.walk(ctx, folderID, visited, &files); err != nil {
		return nil, err
	}

	c.logger.Info("Listed drive folder",
		zap.String("folder_id", folderID),
		zap.Int("pdfs", len(files)))

	return files, nil
}

func (c *Client) walk(ctx context.Context, folderID string, visited map[string]bool, out *[]entity.DriveFile) error {
	if visited[folderID] {
		return nil
	}
	visited[folderID] = true

	query := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(folderID))
	pageToken := ""
	for {
		call := c.service.Files.List().
			Q(query).
			Fields(listFields).
			PageSize(1000).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return fmt.Errorf("failed to list folder %s: %w", folderID, err)
		}

		for _, f := range resp.Files {
			switch {
			case f.MimeType == entity.MimeTypeFolder:
				if err := c.walk(ctx, f.Id, visited, out); err != nil {
					return err
				}
			case isPDF(f):
				*out = append(*out, entity.DriveFile{
					ID:           f.Id,
					Name:         f.Name,
					MimeType:     f.MimeType,
					ModifiedTime: entity.ParseModifiedTime(f.ModifiedTime),
				})
			}
		}

		if resp.NextPageToken == "" {
			return nil
		}
		pageToken = resp.NextPageToken
	}
}

// Download returns the content of a file
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}

	c.logger.Debug("Downloaded drive file",
		zap.String("file_id", fileID),
		zap.Int("size", len(content)))

	return content, nil
}

func isPDF(f *drive.File) bool {
	return f.MimeType == entity.MimeTypePDF || strings.HasSuffix(strings.ToLower(f.Name), ".pdf")
}

var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// escapeQuery escapes a value for a single-quoted Drive query string
func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var _ port.DriveClient = (*Client)(nil)
