// Package media manages the attachment files referenced by notes.
package media

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
)

// Dir stores attachment files under one root directory.
type Dir struct {
	root string
}

func Open(root string) (*Dir, error) {
	if root == "" {
		return nil, errors.New("media dir is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Dir{root: abs}, nil
}

func (d *Dir) Root() string {
	return d.root
}

// LocalPath turns a path reference into a filesystem path. References written
// by mobile clients are file:// URIs; anything else is taken as a path.
func LocalPath(ref string) string {
	if strings.HasPrefix(ref, "file://") {
		if u, err := url.Parse(ref); err == nil && u.Path != "" {
			return filepath.FromSlash(u.Path)
		}
	}
	return ref
}

// Delete removes the file behind ref. With idempotent set, a missing file is
// not an error.
func (d *Dir) Delete(ref string, idempotent bool) error {
	path := LocalPath(ref)
	if path == "" {
		return errors.New("empty path reference")
	}
	err := os.Remove(path)
	if err == nil {
		return nil
	}
	if idempotent && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("delete %s: %w", ref, err)
}

// Import copies src into the root under a fresh "<prefix>_<uuid><ext>" name and
// returns the stable path reference. The source file is left in place.
func (d *Dir) Import(src, prefix, ext string) (string, error) {
	if ext == "" {
		ext = filepath.Ext(LocalPath(src))
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	dst := filepath.Join(d.root, fmt.Sprintf("%s_%s%s", prefix, id, ext))
	if err := copyFile(LocalPath(src), dst); err != nil {
		return "", fmt.Errorf("import %s: %w", src, err)
	}
	return dst, nil
}

// Files lists the regular files under the root matching any of the doublestar
// patterns, as absolute sorted paths. No pattern means every file.
func (d *Dir) Files(patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"**/*"}
	}
	fsys := os.DirFS(d.root)
	seen := map[string]struct{}{}
	var out []string
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
		matches, err := doublestar.Glob(fsys, p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			abs := filepath.Join(d.root, filepath.FromSlash(m))
			if _, ok := seen[abs]; ok {
				continue
			}
			seen[abs] = struct{}{}
			out = append(out, abs)
		}
	}
	sort.Strings(out)
	return out, nil
}

func copyFile(from, to string) error {
	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(to)
		return err
	}
	return dst.Close()
}
