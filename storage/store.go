package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrFileTooLarge is returned by Save when the payload exceeds the given limit.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// Store writes uploaded payloads into a single flat directory and hands back
// public paths like /uploads/<uuid>.<ext>. The root directory is provided at
// construction, never read from ambient state.
type Store struct {
	root         string
	publicPrefix string
}

// New creates the root directory if missing and probes it for writability once,
// so storage failures surface at boot instead of on the first upload.
func New(root, publicPrefix string) (*Store, error) {
	if root == "" {
		return nil, errors.New("upload root directory not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", root, err)
	}
	probe := filepath.Join(root, ".writable-"+uuid.NewString())
	f, err := os.Create(probe)
	if err != nil {
		return nil, fmt.Errorf("upload directory %s is not writable: %w", root, err)
	}
	_ = f.Close()
	_ = os.Remove(probe)

	if publicPrefix == "" {
		publicPrefix = "/uploads/"
	}
	if !strings.HasSuffix(publicPrefix, "/") {
		publicPrefix += "/"
	}
	return &Store{root: root, publicPrefix: publicPrefix}, nil
}

// Root returns the directory files are written to.
func (s *Store) Root() string {
	return s.root
}

// Save copies the payload to a freshly generated name and returns its public
// path. limit <= 0 means unlimited. A partially written file is removed on any
// failure so no orphan is left behind.
func (s *Store) Save(r io.Reader, originalName string, limit int64) (string, error) {
	name := uuid.NewString() + "." + Ext(originalName)
	dst := filepath.Join(s.root, name)

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}

	src := r
	if limit > 0 {
		src = &io.LimitedReader{R: r, N: limit + 1}
	}
	written, err := io.Copy(out, src)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close %s: %w", dst, err)
	}
	if limit > 0 && written > limit {
		_ = os.Remove(dst)
		return "", ErrFileTooLarge
	}

	return s.publicPrefix + name, nil
}

// Delete removes the file behind a public path. A missing file is not an
// error; delete stays idempotent.
func (s *Store) Delete(publicPath string) error {
	if publicPath == "" {
		return nil
	}
	name := path.Base(strings.TrimPrefix(publicPath, s.publicPrefix))
	if name == "." || name == "/" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.root, name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// FilePath maps a public path back to its location on disk.
func (s *Store) FilePath(publicPath string) string {
	return filepath.Join(s.root, path.Base(strings.TrimPrefix(publicPath, s.publicPrefix)))
}

// Ext extracts the extension after the last dot of the original filename,
// falling back to "bin" when the name carries none.
func Ext(filename string) string {
	i := strings.LastIndex(filename, ".")
	if filename == "" || i == -1 {
		return "bin"
	}
	return filename[i+1:]
}
