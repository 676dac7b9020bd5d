// Package upload pushes recorded set videos to object storage through
// backend-issued presigned URLs.
package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"example.com/gymsession/internal/domain"
)

const videoContentType = "video/mp4"

// Presigner is the slice of the api client the uploader needs.
type Presigner interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
}

// Uploader streams video files to presigned PUT URLs. Upload is always a
// user-initiated action, so every failure surfaces to the caller.
type Uploader struct {
	presigner  Presigner
	httpClient *http.Client
}

// NewUploader constructs an Uploader.
func NewUploader(presigner Presigner) *Uploader {
	return &Uploader{
		presigner:  presigner,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// UploadSetVideo derives the pipeline upload key for one set video and
// uploads the file at path. It returns the key the backend will report the
// analysis under.
func (u *Uploader) UploadSetVideo(ctx context.Context, user domain.User, weightKg, path string) (string, error) {
	key := domain.BuildUploadKey(user, weightKg, time.Now())

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open video: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat video: %w", err)
	}

	if err := u.Put(ctx, key, file, info.Size()); err != nil {
		return "", err
	}
	return key, nil
}

// Put uploads size bytes from r under the given object key.
func (u *Uploader) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	url, err := u.presigner.PresignUpload(ctx, key, videoContentType)
	if err != nil {
		return fmt.Errorf("presign upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, r)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", videoContentType)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("upload video: storage returned %d: %s", resp.StatusCode, body)
	}
	return nil
}
