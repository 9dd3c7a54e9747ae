// Package uploads stores product image files on local disk under a single
// images directory and maps them to web-relative URLs.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const thumbsDir = "thumbs"

// File is a stored upload.
type File struct {
	Name string
	Path string
	URL  string
}

// Entry describes a file found in the images directory.
type Entry struct {
	File
	ModTime time.Time
}

// Store writes and removes files inside dir. URLs are urlPrefix + "/" + name.
type Store struct {
	dir       string
	urlPrefix string
}

// NewStore prepares the images directory and its thumbnail subdirectory.
func NewStore(dir, urlPrefix string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("uploads: directory required")
	}
	if err := os.MkdirAll(filepath.Join(dir, thumbsDir), 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create dir: %w", err)
	}
	prefix := "/" + strings.Trim(urlPrefix, "/")
	return &Store{dir: dir, urlPrefix: prefix}, nil
}

// Dir returns the images directory.
func (s *Store) Dir() string { return s.dir }

// URLPrefix returns the web prefix the directory is served under.
func (s *Store) URLPrefix() string { return s.urlPrefix }

// Save copies src into a new uniquely named file with the given extension.
// The file is created exclusively so a name collision fails instead of
// overwriting another request's upload.
func (s *Store) Save(src io.Reader, ext string) (File, error) {
	file := s.fileFor(uuid.NewString() + ext)
	dst, err := os.OpenFile(file.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return File{}, fmt.Errorf("uploads: create %s: %w", file.Name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(file.Path)
		return File{}, fmt.Errorf("uploads: write %s: %w", file.Name, err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(file.Path)
		return File{}, fmt.Errorf("uploads: close %s: %w", file.Name, err)
	}
	return file, nil
}

// Remove deletes the file and its thumbnail. Missing files are not an error.
func (s *Store) Remove(f File) error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("uploads: remove %s: %w", f.Name, err)
	}
	if err := os.Remove(s.ThumbnailPath(f)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("uploads: remove thumbnail %s: %w", f.Name, err)
	}
	return nil
}

// Resolve maps a stored URL back to its file. It rejects URLs outside the
// prefix and names that would escape the directory.
func (s *Store) Resolve(url string) (File, bool) {
	name, ok := strings.CutPrefix(url, s.urlPrefix+"/")
	if !ok || name == "" || name != path.Base(name) || name == "." || name == ".." {
		return File{}, false
	}
	return s.fileFor(name), true
}

// ThumbnailPath returns where the thumbnail of f lives.
func (s *Store) ThumbnailPath(f File) string {
	return filepath.Join(s.dir, thumbsDir, f.Name)
}

// List returns the regular files directly inside the images directory.
func (s *Store) List() ([]Entry, error) {
	return s.listDir(s.dir)
}

// ListThumbnails returns the rendered thumbnails. Each entry's File names the
// source image the thumbnail belongs to, which may no longer exist.
func (s *Store) ListThumbnails() ([]Entry, error) {
	return s.listDir(filepath.Join(s.dir, thumbsDir))
}

func (s *Store) listDir(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("uploads: read dir: %w", err)
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{File: s.fileFor(de.Name()), ModTime: info.ModTime()})
	}
	return entries, nil
}

func (s *Store) fileFor(name string) File {
	return File{
		Name: name,
		Path: filepath.Join(s.dir, name),
		URL:  path.Join(s.urlPrefix, name),
	}
}
