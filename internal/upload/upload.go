// Package upload stores review poster images under the public static
// directory and hands back the URL path the pages reference them by.
package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"sainmakosam/internal/core/util"

	"github.com/sirupsen/logrus"
)

// URLPrefix is the public path uploaded images are served under.
const URLPrefix = "/images/"

var ErrUnsupportedType = errors.New("upload: unsupported image type")

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".avif": true,
}

// File is one submitted image. Name is the client-side file name and only
// contributes its extension.
type File struct {
	Name string
	Body io.Reader
}

type Store struct {
	dir string
}

// NewStore prepares <publicDir>/images for writing.
func NewStore(publicDir string) (*Store, error) {
	dir := filepath.Join(publicDir, strings.TrimSuffix(strings.TrimPrefix(URLPrefix, "/"), "/"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes f under a generated name that keeps the original extension
// and returns its public reference, e.g. /images/1718000000000-12345.png.
func (s *Store) Save(f *File) (string, error) {
	ext := strings.ToLower(filepath.Ext(f.Name))
	if !allowedExt[ext] {
		return "", ErrUnsupportedType
	}

	name := util.FileSuffix() + ext
	dst := filepath.Join(s.dir, name)
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(out, f.Body); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return URLPrefix + name, nil
}

// Replace stores f and then removes the file behind oldRef. Failing to
// remove the old file is logged, not returned.
func (s *Store) Replace(oldRef string, f *File) (string, error) {
	ref, err := s.Save(f)
	if err != nil {
		return "", err
	}
	if err := s.Delete(oldRef); err != nil {
		logrus.WithError(err).WithField("image", oldRef).Warn("Failed to remove replaced image")
	}
	return ref, nil
}

// Delete removes the file behind ref. References that are not local
// uploads (the placeholder URL, external links) and files already gone are
// not errors.
func (s *Store) Delete(ref string) error {
	p, ok := s.Path(ref)
	if !ok {
		return nil
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove %s: %w", ref, err)
	}
	logrus.WithField("image", ref).Info("Deleted image file")
	return nil
}

// Path resolves a public reference to its location on disk. It reports
// false for anything that is not a plain file name under URLPrefix.
func (s *Store) Path(ref string) (string, bool) {
	if !strings.HasPrefix(ref, URLPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, URLPrefix)
	if name == "" || name != path.Base(name) || name == "." || name == ".." || strings.Contains(name, `\`) {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}
