package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/waste3d/learning-platform/internal/application/usecase"
	"github.com/waste3d/learning-platform/internal/domain"
)

var (
	videoTypes = []string{"video/mp4", "video/x-matroska", "video/quicktime", "video/webm"}
	imageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
)

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// readUpload opens an optional multipart file, checks its size and sniffs
// the real content type. A missing field yields (nil, noop, nil).
func readUpload(c *gin.Context, field string, maxBytes int64, allowed []string) (*usecase.File, func(), error) {
	noop := func() {}

	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, fmt.Errorf("%w: %s: %v", domain.ErrValidation, field, err)
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, noop, fmt.Errorf("%w: %s exceeds %d MB", domain.ErrValidation, field, maxBytes>>20)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	mtype, err := sniff(f)
	if err != nil {
		_ = f.Close()
		return nil, noop, err
	}
	if !mimeAllowed(mtype, allowed) {
		_ = f.Close()
		return nil, noop, fmt.Errorf("%w: %s has unsupported type %s", domain.ErrValidation, field, mtype.String())
	}

	file := &usecase.File{Reader: f, Ext: mtype.Extension(), ContentType: mtype.String()}
	return file, func() { _ = f.Close() }, nil
}

func sniff(f multipart.File) (*mimetype.MIME, error) {
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}
	return mtype, nil
}

func mimeAllowed(m *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if m.Is(a) {
			return true
		}
	}
	return false
}
