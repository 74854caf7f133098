package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/waste3d/learning-platform/internal/platform/logger"
)

func TestDisabledUploader(t *testing.T) {
	u, err := NewGCSUploader(context.Background(), logger.Nop(), Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := u.Upload(context.Background(), strings.NewReader("x"), FolderAvatars, ".png", "image/png"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if err := u.Delete(context.Background(), "https://cdn/x"); err != nil {
		t.Fatalf("delete on disabled uploader: %v", err)
	}
}

func TestPublicURL(t *testing.T) {
	cases := []struct {
		name string
		u    GCSUploader
		want string
	}{
		{"cdn", GCSUploader{bucket: "b", cdnDomain: "cdn.example.com"}, "https://cdn.example.com/avatars/a.png"},
		{"emulator", GCSUploader{bucket: "b", emulatorHost: "http://localhost:4443"}, "http://localhost:4443/b/avatars/a.png"},
		{"gcs", GCSUploader{bucket: "b"}, "https://storage.googleapis.com/b/avatars/a.png"},
	}
	for _, tc := range cases {
		if got := tc.u.PublicURL("avatars/a.png"); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
		key, ok := tc.u.keyFromURL(tc.want)
		if !ok || key != "avatars/a.png" {
			t.Fatalf("%s: keyFromURL = %q %v", tc.name, key, ok)
		}
	}
}

func TestObjectKey(t *testing.T) {
	if got := ObjectKey(FolderVideos, "id", "mp4"); got != "videos/id.mp4" {
		t.Fatalf("got %s", got)
	}
	if got := ObjectKey(FolderThumbnails, "id", ".jpg"); got != "thumbnails/id.jpg" {
		t.Fatalf("got %s", got)
	}
}
