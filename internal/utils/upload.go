package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// thumbWidth is the bounding box for generated service image thumbnails.
const thumbWidth = 320

// SaveServiceImage stores an uploaded service image under dir and writes a
// thumbnail next to it.  The stored filename is randomized to avoid
// collisions and the returned path is relative (e.g. "uploads/<name>") so
// it can be served statically and stored on the service record.  Only
// jpg/jpeg/png/webp extensions are accepted.
func SaveServiceImage(fh *multipart.FileHeader, dir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", fmt.Errorf("unsupported image extension %q", ext)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir uploads: %w", err)
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	full := filepath.Join(dir, name)
	dst, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", err
	}

	// Thumbnail generation is best effort; a service image that cannot be
	// decoded still gets stored as-is.
	if img, err := imaging.Open(full); err == nil {
		thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
		thumbPath := filepath.Join(dir, "thumb_"+name)
		_ = imaging.Save(thumb, thumbPath)
	}

	return filepath.ToSlash(filepath.Join(filepath.Base(dir), name)), nil
}
