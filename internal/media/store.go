// Package media stores user-supplied images (profile pictures and face
// references) on local disk under a configured root.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
	"github.com/josh-kwaku/tizim-bank/internal/logging"
)

type Kind string

const (
	KindProfileImage  Kind = "profile_images"
	KindFaceReference Kind = "face_references"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

func (k Kind) valid() bool {
	return k == KindProfileImage || k == KindFaceReference
}

type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type Store struct {
	root     string
	maxBytes int64
}

func NewStore(root string, maxBytes int64) *Store {
	return &Store{root: root, maxBytes: maxBytes}
}

func (s *Store) Root() string { return s.root }

// Save writes the upload and returns its path relative to the store root.
// The content type is sniffed from the bytes; the client's header is only
// used for logging.
func (s *Store) Save(ctx context.Context, kind Kind, up Upload) (string, error) {
	log := logging.FromContext(ctx)

	data, err := io.ReadAll(io.LimitReader(up.Body, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("Save: read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("Save: %w", domain.ErrMediaTooLarge)
	}

	sniffed := http.DetectContentType(data)
	ext, ok := extensions[sniffed]
	if !ok {
		log.Warn("rejected upload",
			"filename", up.Filename,
			"declared_type", up.ContentType,
			"detected_type", sniffed,
		)
		return "", fmt.Errorf("Save: %s: %w", sniffed, domain.ErrUnsupportedMedia)
	}

	rel := filepath.ToSlash(filepath.Join(string(kind), uuid.NewString()+ext))
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("Save: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("Save: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("Save: write: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("Save: close: %w", err)
	}

	log.Debug("media stored", "path", rel, "bytes", len(data))
	return rel, nil
}

// Remove deletes a file previously returned by Save. Missing files are not
// an error.
func (s *Store) Remove(rel string) error {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("Remove: path escapes media root: %s", rel)
	}
	err := os.Remove(filepath.Join(s.root, clean))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("Remove: %w", err)
	}
	return nil
}

// Open returns a stored file by the relative path Save produced. Only
// "<kind>/<name>" paths resolve; directories and anything outside the kind
// folders report domain.ErrNotFound.
func (s *Store) Open(rel string) (*os.File, os.FileInfo, error) {
	kind, name, ok := strings.Cut(rel, "/")
	if !ok || !Kind(kind).valid() || name == "" || strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return nil, nil, fmt.Errorf("Open: %s: %w", rel, domain.ErrNotFound)
	}

	f, err := os.Open(filepath.Join(s.root, kind, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("Open: %s: %w", rel, domain.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("Open: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("Open: stat: %w", err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, fmt.Errorf("Open: %s: %w", rel, domain.ErrNotFound)
	}
	return f, info, nil
}
