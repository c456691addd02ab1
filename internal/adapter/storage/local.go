// Package storage implements asset stores for uploaded files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"brandsite/internal/domain"
)

// ErrPathTraversal is returned when a folder or filename would escape the root.
var ErrPathTraversal = errors.New("path escapes root")

// Local writes uploads below a public directory served as static files.
type Local struct {
	root string
}

var _ domain.AssetStore = (*Local)(nil)

// NewLocal creates a store rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{root: dir}
}

// Save writes body to root/folder/filename and returns "/folder/filename".
// Existing files are never overwritten.
func (l *Local) Save(ctx context.Context, folder, filename, contentType string, size int64, body io.Reader) (string, error) {
	rel := path.Join(folder, filename)
	dst, err := resolveWithinRoot(l.root, rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("%s: %w", rel, domain.ErrAssetExists)
	}
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return "/" + rel, nil
}

// resolveWithinRoot maps a slash path to a filesystem path under root,
// rejecting traversal and existing symlink components.
func resolveWithinRoot(root, userPath string) (string, error) {
	if root == "" {
		return "", errors.New("root is required")
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	rootAbs = filepath.Clean(rootAbs)

	p := strings.TrimLeft(userPath, "/\\")
	joined := filepath.Clean(filepath.Join(rootAbs, filepath.FromSlash(p)))
	if !isWithin(rootAbs, joined) || joined == rootAbs {
		return "", ErrPathTraversal
	}

	rel, err := filepath.Rel(rootAbs, joined)
	if err != nil {
		return "", ErrPathTraversal
	}
	cur := rootAbs
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		st, err := os.Lstat(cur)
		if err != nil {
			// Component doesn't exist yet.
			break
		}
		if st.Mode()&os.ModeSymlink != 0 {
			return "", ErrPathTraversal
		}
	}
	return joined, nil
}

func isWithin(root, candidate string) bool {
	if root == candidate {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(candidate, root)
}
