package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local stores files under a root directory.
type Local struct {
	root    string
	baseURL string
}

// NewLocal resolves root against the working directory when it is relative.
func NewLocal(root, baseURL string) *Local {
	if !filepath.IsAbs(root) {
		if cwd, err := os.Getwd(); err == nil {
			root = filepath.Join(cwd, root)
		}
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// abs keeps p inside root: "../" segments are cleaned away first.
func (d *Local) abs(p string) string {
	clean := path.Clean("/" + filepath.ToSlash(p))
	return filepath.Join(d.root, filepath.FromSlash(clean))
}

func (d *Local) Put(ctx context.Context, p string, content []byte) error {
	return d.PutStream(ctx, p, bytes.NewReader(content))
}

// PutStream writes to a temp file and renames it so readers never see a
// partial file.
func (d *Local) PutStream(_ context.Context, p string, r io.Reader) error {
	full := d.abs(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage/local: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return fmt.Errorf("storage/local: create %s: %w", p, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("storage/local: write %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage/local: close %s: %w", p, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("storage/local: rename %s: %w", p, err)
	}
	return nil
}

func (d *Local) Get(_ context.Context, p string) ([]byte, error) {
	data, err := os.ReadFile(d.abs(p))
	if err != nil {
		return nil, fmt.Errorf("storage/local: get %s: %w", p, err)
	}
	return data, nil
}

func (d *Local) Exists(_ context.Context, p string) bool {
	_, err := os.Stat(d.abs(p))
	return err == nil
}

// Delete is a no-op for a missing file.
func (d *Local) Delete(_ context.Context, p string) error {
	if err := os.Remove(d.abs(p)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage/local: delete %s: %w", p, err)
	}
	return nil
}

func (d *Local) Files(_ context.Context, directory string) ([]string, error) {
	entries, err := os.ReadDir(d.abs(directory))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage/local: files %s: %w", directory, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && !strings.HasPrefix(e.Name(), ".tmp-") {
			out = append(out, path.Join(directory, e.Name()))
		}
	}
	return sorted(out), nil
}

func (d *Local) URL(p string) string {
	return d.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(p), "/")
}
