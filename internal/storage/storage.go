package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// AferoStore implements Store on an afero filesystem, rooted at a base
// directory.
type AferoStore struct {
	fs afero.Fs
}

var _ Store = (*AferoStore)(nil)

// NewAferoStore stores files in fsys under root. An empty root uses fsys as is.
func NewAferoStore(fsys afero.Fs, root string) *AferoStore {
	if root != "" {
		fsys = afero.NewBasePathFs(fsys, root)
	}
	return &AferoStore{fs: fsys}
}

// Clean validates a relative slash-separated path and returns its clean form.
func Clean(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return cleaned, nil
}

// Save writes the content of the reader to path, creating parent directories.
func (s *AferoStore) Save(ctx context.Context, p string, reader io.Reader) (int64, error) {
	p, err := Clean(p)
	if err != nil {
		return 0, err
	}
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return 0, err
	}
	f, err := s.fs.Create(p)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(f, reader)
}

// Delete removes a file.
func (s *AferoStore) Delete(ctx context.Context, p string) error {
	p, err := Clean(p)
	if err != nil {
		return err
	}
	return s.fs.Remove(p)
}

// Get opens a file for reading. Missing files return an error satisfying
// errors.Is(err, fs.ErrNotExist).
func (s *AferoStore) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	p, err := Clean(p)
	if err != nil {
		return nil, err
	}
	return s.fs.OpenFile(p, os.O_RDONLY, 0)
}

// OriginalPath returns a fresh storage path for an upload in a session:
// "<session>/<uuid><ext>". The extension comes from the MIME type, or from
// the client's filename when the type is unknown.
func OriginalPath(sessionID, mimeType, filename string) string {
	ext := ""
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		ext = exts[0]
	} else {
		ext = strings.ToLower(path.Ext(path.Base(filename)))
	}
	if sessionID == "" {
		sessionID = "anonymous"
	}
	return path.Join(sessionID, uuid.NewString()+ext)
}
