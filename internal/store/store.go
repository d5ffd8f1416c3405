// Package store persists Flow documents on the local filesystem, one file
// per document under a single configured directory.
//
// Files are named <name>.cf.json. Callers may address a document by its
// bare name ("checkout"), by name plus the .cf suffix ("checkout.cf"), or by
// the full file name ("checkout.cf.json"); all three resolve to the same file.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/HendryAvila/flowdoc/internal/flow"
)

const (
	// DocSuffix marks a flow document name.
	DocSuffix = ".cf"
	// FileExt is appended to DocSuffix to form the on-disk extension.
	FileExt = ".json"
)

// Store defines the persistence interface for flow documents.
// Abstracted for testability.
type Store interface {
	Exists(id string) (bool, error)
	Load(id string) (*flow.Flow, error)
	LoadRaw(id string) ([]byte, error)
	Save(id string, f *flow.Flow) error
	SaveRaw(id string, data []byte) error
	Delete(id string) error
	List() ([]Entry, error)
}

// Entry describes one stored document without loading it.
type Entry struct {
	ID       string    `json:"id"`
	File     string    `json:"file"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// FileStore implements Store using the local filesystem.
type FileStore struct {
	dir string
}

// NewFileStore creates a filesystem-backed store rooted at dir. The
// directory is created lazily on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory documents are stored in.
func (s *FileStore) Dir() string { return s.dir }

// FileName normalises a caller-supplied identifier to its file name.
func FileName(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", flow.Malformedf("flow id is required")
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") || strings.HasPrefix(id, ".") {
		return "", flow.Malformedf("invalid flow id %q: must be a plain file name", id)
	}
	switch {
	case strings.HasSuffix(id, DocSuffix+FileExt):
		return id, nil
	case strings.HasSuffix(id, DocSuffix):
		return id + FileExt, nil
	default:
		return id + DocSuffix + FileExt, nil
	}
}

// DocName returns the bare document name for a file name or identifier.
func DocName(id string) string {
	id = strings.TrimSuffix(id, FileExt)
	return strings.TrimSuffix(id, DocSuffix)
}

// Path returns the absolute path of the file backing id.
func (s *FileStore) Path(id string) (string, error) {
	name, err := FileName(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// Exists reports whether a document file exists for id.
func (s *FileStore) Exists(id string) (bool, error) {
	path, err := s.Path(id)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, ioErr("checking flow "+id, err)
	}
	return true, nil
}

// LoadRaw reads the document bytes without parsing them.
func (s *FileStore) LoadRaw(id string) ([]byte, error) {
	path, err := s.Path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &flow.NotFoundError{Kind: "flow", ID: DocName(id)}
		}
		return nil, ioErr("reading flow "+id, err)
	}
	return data, nil
}

// Load reads and parses a document.
func (s *FileStore) Load(id string) (*flow.Flow, error) {
	data, err := s.LoadRaw(id)
	if err != nil {
		return nil, err
	}
	f, err := flow.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("flow %q: %w", DocName(id), err)
	}
	return f, nil
}

// Save writes the whole document. The write goes to a temporary file in
// the same directory which is then renamed over the target, so readers
// never observe a half-written document.
func (s *FileStore) Save(id string, f *flow.Flow) error {
	if _, err := s.Path(id); err != nil {
		return err
	}
	data, err := flow.Encode(f)
	if err != nil {
		return err
	}
	return s.SaveRaw(id, data)
}

// SaveRaw writes already-encoded document bytes as-is, with the same
// atomic replace as Save.
func (s *FileStore) SaveRaw(id string, data []byte) error {
	path, err := s.Path(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return ioErr("creating flows directory", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".flowdoc-*.tmp")
	if err != nil {
		return ioErr("creating temp file", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return ioErr("writing flow "+id, err)
	}
	if err := tmp.Close(); err != nil {
		return ioErr("writing flow "+id, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return ioErr("writing flow "+id, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return ioErr("replacing flow "+id, err)
	}
	return nil
}

// Delete removes the document file.
func (s *FileStore) Delete(id string) error {
	path, err := s.Path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &flow.NotFoundError{Kind: "flow", ID: DocName(id)}
		}
		return ioErr("deleting flow "+id, err)
	}
	return nil
}

// List returns every document file in the directory, sorted by id. A
// missing directory is an empty list, not an error.
func (s *FileStore) List() ([]Entry, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, ioErr("reading flows directory", err)
	}

	var result []Entry
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, DocSuffix+FileExt) || strings.HasPrefix(name, ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // removed between ReadDir and Info
		}
		result = append(result, Entry{
			ID:       DocName(name),
			File:     name,
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ioErr tags a filesystem failure with flow.ErrIO, keeping the cause.
func ioErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, flow.ErrIO, err)
}
