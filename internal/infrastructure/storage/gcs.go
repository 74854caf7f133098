// Package storage uploads user media (avatars, lesson videos, course
// thumbnails) to a Google Cloud Storage bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/waste3d/learning-platform/internal/platform/logger"
)

// ErrDisabled is returned by uploads when no bucket is configured.
var ErrDisabled = errors.New("storage: uploads are not configured")

type Folder string

const (
	FolderAvatars    Folder = "avatars"
	FolderVideos     Folder = "videos"
	FolderThumbnails Folder = "thumbnails"
)

type Config struct {
	Bucket       string
	CDNDomain    string
	EmulatorHost string
}

type GCSUploader struct {
	log          *logger.Logger
	client       *gcs.Client
	bucket       string
	cdnDomain    string
	emulatorHost string
}

// NewGCSUploader returns an uploader that answers ErrDisabled when the bucket
// is empty, so the rest of the API keeps working without storage.
func NewGCSUploader(ctx context.Context, log *logger.Logger, cfg Config) (*GCSUploader, error) {
	u := &GCSUploader{
		log:          log.With("service", "GCSUploader"),
		bucket:       strings.TrimSpace(cfg.Bucket),
		cdnDomain:    strings.TrimSpace(cfg.CDNDomain),
		emulatorHost: strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"),
	}
	if u.bucket == "" {
		u.log.Warn("GCS bucket not configured, uploads disabled")
		return u, nil
	}

	var opts []option.ClientOption
	if u.emulatorHost != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", u.emulatorHost)
		opts = append(opts, option.WithoutAuthentication())
	} else {
		opts = append(opts, option.WithScopes(gcs.ScopeReadWrite))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	u.client = client
	u.log.Info("Object storage initialized", "bucket", u.bucket, "emulator_host", u.emulatorHost)
	return u, nil
}

// Upload writes r under folder/<uuid><ext> and returns its public URL.
func (u *GCSUploader) Upload(ctx context.Context, r io.Reader, folder Folder, ext, contentType string) (string, error) {
	if u.client == nil {
		return "", ErrDisabled
	}
	key := ObjectKey(folder, uuid.NewString(), ext)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return u.PublicURL(key), nil
}

// Delete removes an object previously returned by Upload. URLs that do not
// belong to this bucket are ignored.
func (u *GCSUploader) Delete(ctx context.Context, url string) error {
	if u.client == nil {
		return nil
	}
	key, ok := u.keyFromURL(url)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := u.client.Bucket(u.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q: %w", key, err)
	}
	return nil
}

func (u *GCSUploader) PublicURL(key string) string {
	key = strings.TrimLeft(key, "/")
	switch {
	case u.cdnDomain != "":
		return fmt.Sprintf("https://%s/%s", u.cdnDomain, key)
	case u.emulatorHost != "":
		return fmt.Sprintf("%s/%s/%s", u.emulatorHost, u.bucket, key)
	default:
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, key)
	}
}

func (u *GCSUploader) keyFromURL(url string) (string, bool) {
	if url == "" {
		return "", false
	}
	prefix := u.PublicURL("")
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (u *GCSUploader) Close() error {
	if u.client == nil {
		return nil
	}
	return u.client.Close()
}

func ObjectKey(folder Folder, name, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(string(folder), name+ext)
}
