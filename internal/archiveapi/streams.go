package archiveapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/allenhsieh/archivebatcheditor-sub001/internal/services"
)

const (
	pathRecordingDatesStream = "/api/youtube/update-recording-dates-stream"
	pathDescriptionsStream   = "/api/youtube/update-descriptions-stream"
	pathUploadImageStream    = "/api/batch-upload-image-stream"
)

// UpdateRecordingDatesStream submits date updates and returns the event
// stream body. Events are keyed by videoId.
func (c *Client) UpdateRecordingDatesStream(ctx context.Context, updates []DateUpdate) (io.ReadCloser, error) {
	if len(updates) == 0 {
		return nil, services.Wrap(services.ErrValidation, "", pathRecordingDatesStream, "updates required", nil)
	}
	return c.openStream(ctx, pathRecordingDatesStream, map[string][]DateUpdate{"updates": updates})
}

// UpdateDescriptionsStream submits description updates and returns the event
// stream body. Events are keyed by videoId.
func (c *Client) UpdateDescriptionsStream(ctx context.Context, updates []DescriptionUpdate) (io.ReadCloser, error) {
	if len(updates) == 0 {
		return nil, services.Wrap(services.ErrValidation, "", pathDescriptionsStream, "updates required", nil)
	}
	return c.openStream(ctx, pathDescriptionsStream, map[string][]DescriptionUpdate{"updates": updates})
}

// Image is a file attached to a batch upload.
type Image struct {
	Name   string
	Reader io.Reader
}

// BatchUploadImageStream attaches one image to every listed item and returns
// the event stream body. Events are keyed by identifier.
func (c *Client) BatchUploadImageStream(ctx context.Context, image Image, identifiers []string) (io.ReadCloser, error) {
	if image.Reader == nil || strings.TrimSpace(image.Name) == "" {
		return nil, services.Wrap(services.ErrValidation, "", pathUploadImageStream, "image required", nil)
	}
	if len(identifiers) == 0 {
		return nil, services.Wrap(services.ErrValidation, "", pathUploadImageStream, "items required", nil)
	}
	items, err := json.Marshal(identifiers)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "", pathUploadImageStream, "encode items", err)
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(writer, image, items))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, pathUploadImageStream, nil, pr, writer.FormDataContentType())
	if err != nil {
		pr.Close()
		return nil, services.Wrap(services.ErrValidation, "", pathUploadImageStream, "build request", err)
	}
	resp, err := c.streamClient.Do(req)
	if err != nil {
		pr.Close()
		return nil, services.Wrap(services.ErrNetwork, "", pathUploadImageStream, "request failed", err)
	}
	if !isSuccess(resp.StatusCode) {
		defer resp.Body.Close()
		return nil, services.Wrap(services.ErrNetwork, "", pathUploadImageStream, "unexpected status", statusError(pathUploadImageStream, resp))
	}
	return resp.Body, nil
}

func writeUploadForm(writer *multipart.Writer, image Image, items []byte) error {
	part, err := writer.CreateFormFile("image", filepath.Base(image.Name))
	if err != nil {
		return fmt.Errorf("create image part: %w", err)
	}
	if _, err := io.Copy(part, image.Reader); err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	if err := writer.WriteField("items", string(items)); err != nil {
		return fmt.Errorf("write items field: %w", err)
	}
	return writer.Close()
}
