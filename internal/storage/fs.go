package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const tmpPrefix = ".swashbuckle-tmp-"

// FS implements Provider on an os.Root, which refuses paths that escape
// the directory through "..", absolute names or symlinks.
type FS struct {
	dir  string
	root *os.Root
}

// NewFS opens dir, which must already exist.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open root: %w", err)
	}
	return &FS{dir: abs, root: root}, nil
}

// Root returns the absolute root directory.
func (f *FS) Root() string {
	return f.dir
}

// Close releases the root handle.
func (f *FS) Close() error {
	return f.root.Close()
}

func clean(p string) (string, error) {
	if p == "" {
		return ".", nil
	}
	p = filepath.ToSlash(p)
	if strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", p)
	}
	return path.Clean(p), nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "."
}

func (f *FS) List(dir, ext string) ([]Entry, error) {
	base, err := clean(dir)
	if err != nil {
		return nil, err
	}
	var out []Entry
	err = fs.WalkDir(f.root.FS(), base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p != base && hidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, Entry{Path: p, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", base, err)
	}
	return out, nil
}

func (f *FS) Read(p string) ([]byte, error) {
	name, err := clean(p)
	if err != nil {
		return nil, err
	}
	data, err := f.root.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", p, err)
	}
	return data, nil
}

// Write goes through a temp file in the target directory: write, fsync,
// rename. Readers see the old or the new content, never a partial file.
func (f *FS) Write(p string, content []byte) error {
	name, err := clean(p)
	if err != nil {
		return err
	}
	if name == "." {
		return errors.New("storage: write needs a file name")
	}
	dir := path.Dir(name)
	if err := f.root.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}

	tmpName := path.Join(dir, tmpPrefix+uuid.NewString())
	tmp, err := f.root.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = f.root.Remove(tmpName)
		}
	}()

	// Undo the umask so generated pages stay world-readable.
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("storage: chmod temp: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := f.root.Rename(tmpName, name); err != nil {
		_ = f.root.Remove(tmpName)
		committed = true
		return fmt.Errorf("storage: rename: %w", err)
	}
	committed = true
	return nil
}

func (f *FS) Delete(p string) error {
	name, err := clean(p)
	if err != nil {
		return err
	}
	if err := f.root.Remove(name); err != nil {
		return fmt.Errorf("storage: delete %s: %w", p, err)
	}
	return nil
}
