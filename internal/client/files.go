package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"iserve/internal/model"
	"iserve/internal/upload"

	"go.uber.org/zap"
)

// FileDescriptor is the metadata-only view of an attachment, for callers
// that want "does a file exist / what is it" without handling raw bytes.
type FileDescriptor struct {
	Filename     string
	Size         int64
	Type         string
	LastModified time.Time
	Exists       bool
}

func resourcePath(resource string) (string, error) {
	switch resource {
	case "demand":
		return "/demands", nil
	case "response":
		return "/responses", nil
	default:
		return "", fmt.Errorf("unknown resource %q", resource)
	}
}

// UploadFile sends a new attachment (POST); ReplaceFile swaps the existing
// one (PUT). Validation failures surface locally and never reach the
// network. Callers that want progress wrap content with
// upload.NewProgressReader and consume its channel while this call runs.
func (c *Client) UploadFile(ctx context.Context, resource, id string, info upload.FileInfo, content io.Reader, accept string) (*model.StoredFile, error) {
	return c.sendFile(ctx, http.MethodPost, resource, id, info, content, accept)
}

func (c *Client) ReplaceFile(ctx context.Context, resource, id string, info upload.FileInfo, content io.Reader, accept string) (*model.StoredFile, error) {
	return c.sendFile(ctx, http.MethodPut, resource, id, info, content, accept)
}

func (c *Client) sendFile(ctx context.Context, method, resource, id string, info upload.FileInfo, content io.Reader, accept string) (*model.StoredFile, error) {
	base, err := resourcePath(resource)
	if err != nil {
		return nil, err
	}
	if err := upload.Validate(info, accept, upload.DefaultMaxSize); err != nil {
		c.log.Warn("file rejected before upload", zap.String("reason", err.Error()))
		return nil, err
	}

	form, contentType := upload.StreamForm(info, content)

	req, err := c.newRequest(ctx, method, base+"/"+url.PathEscape(id)+"/file", nil, form, contentType)
	if err != nil {
		return nil, err
	}

	raw, err := c.roundTrip(req)
	if err != nil {
		return nil, err
	}
	var stored model.StoredFile
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetLatestFile always fetches the attachment as a binary blob. With
// download=false the blob is discarded and only the descriptor is returned;
// with download=true the bytes come back too. A 404 means "no file" and
// yields a nil descriptor without an error; any other failure propagates.
func (c *Client) GetLatestFile(ctx context.Context, resource, id string, download bool) (*FileDescriptor, []byte, error) {
	base, err := resourcePath(resource)
	if err != nil {
		return nil, nil, err
	}

	q := url.Values{}
	q.Set("download", strconv.FormatBool(download))

	req, err := c.newRequest(ctx, http.MethodGet, base+"/"+url.PathEscape(id)+"/file/resource", q, nil, "")
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.doRaw(req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	desc := &FileDescriptor{
		Filename: upload.FilenameFromDisposition(
			resp.Header.Get("Content-Disposition"),
			resource+"_"+id+"_file",
		),
		Size:   int64(len(body)),
		Type:   resp.Header.Get("Content-Type"),
		Exists: true,
	}
	if t, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		desc.LastModified = t
	}

	if !download {
		return desc, nil, nil
	}
	return desc, body, nil
}

// DeleteFile removes every attachment the resource holds.
func (c *Client) DeleteFile(ctx context.Context, resource, id string) error {
	base, err := resourcePath(resource)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodDelete, base+"/"+url.PathEscape(id)+"/file", nil, nil)
	return err
}
