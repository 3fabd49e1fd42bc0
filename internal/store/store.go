package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned for a document name with no file behind it.
var ErrNotFound = errors.New("workflow file not found")

// Store is a directory of flowspec documents. Bookkeeping lives under
// <dir>/.flowspec: revision snapshots and index.json.
type Store struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// Open returns a Store rooted at dir, creating the directory if needed.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger, now: time.Now}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// FileName returns the conventional file name for a flow id.
func FileName(flowID string) string {
	return flowID + Extension
}

// List returns the documents in the store directory, sorted by name.
func (s *Store) List(ctx context.Context) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store directory: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Extension) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, File{
			Name:    e.Name(),
			Path:    filepath.Join(s.dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Read returns the text of a document.
func (s *Store) Read(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := s.path(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}

// Create writes a new document and fails if one with that name exists.
func (s *Store) Create(ctx context.Context, name, text string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("workflow file %s already exists", name)
	}
	_, err = s.Write(ctx, name, text)
	return err
}

// Write replaces a document's text, snapshots it as a new revision and
// updates the index. It returns the revision number.
func (s *Store) Write(ctx context.Context, name, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	path, err := s.path(name)
	if err != nil {
		return 0, err
	}

	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return 0, fmt.Errorf("write %s: %w", name, err)
	}

	revs, err := s.Revisions(name)
	if err != nil {
		return 0, err
	}
	rev := 1
	if len(revs) > 0 {
		rev = revs[len(revs)-1].Number + 1
	}
	if err := s.saveRevision(name, text, rev); err != nil {
		return 0, err
	}
	if err := s.updateIndex(name, text, rev); err != nil {
		return 0, err
	}

	s.logger.Debug("workflow written", "file", name, "revision", rev, "bytes", len(text))
	return rev, nil
}

// Delete removes a document, its revisions and its index entry.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if err := os.RemoveAll(s.revisionsDir(name)); err != nil {
		return fmt.Errorf("delete revisions of %s: %w", name, err)
	}
	return s.removeFromIndex(name)
}

// HasUnsavedChanges reports whether text differs from the stored document.
// A document that cannot be read counts as changed.
func (s *Store) HasUnsavedChanges(ctx context.Context, name, text string) bool {
	stored, err := s.Read(ctx, name)
	if err != nil {
		return true
	}
	return stored != text
}

// Revisions lists the saved snapshots of a document, oldest first.
func (s *Store) Revisions(name string) ([]Revision, error) {
	if _, err := s.path(name); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.revisionsDir(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read revisions: %w", err)
	}

	var revs []Revision
	for _, e := range entries {
		n, ok := revisionNumber(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat revision %s: %w", e.Name(), err)
		}
		revs = append(revs, Revision{
			Number:  n,
			Path:    filepath.Join(s.revisionsDir(name), e.Name()),
			SavedAt: info.ModTime(),
		})
	}
	sort.Slice(revs, func(i, j int) bool { return revs[i].Number < revs[j].Number })
	return revs, nil
}

// ReadRevision returns the text of revision n of a document.
func (s *Store) ReadRevision(name string, n int) (string, error) {
	if _, err := s.path(name); err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(s.revisionsDir(name), revisionFile(n)))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s revision %d: %w", name, n, ErrNotFound)
		}
		return "", fmt.Errorf("read revision: %w", err)
	}
	return string(data), nil
}

// Index returns the index entries, most recently updated first.
func (s *Store) Index() ([]IndexEntry, error) {
	idx, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	return idx.Flows, nil
}

// --- paths ---

func (s *Store) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || !strings.HasSuffix(name, Extension) {
		return "", fmt.Errorf("invalid workflow file name %q (want <name>%s)", name, Extension)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *Store) metaDir() string {
	return filepath.Join(s.dir, ".flowspec")
}

func (s *Store) revisionsDir(name string) string {
	return filepath.Join(s.metaDir(), "revisions", strings.TrimSuffix(name, Extension))
}

func revisionFile(n int) string {
	return fmt.Sprintf("rev-%03d.yaml", n)
}

func revisionNumber(file string) (int, bool) {
	if !strings.HasPrefix(file, "rev-") || !strings.HasSuffix(file, ".yaml") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(file, "rev-"), ".yaml"))
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *Store) saveRevision(name, text string, rev int) error {
	dir := s.revisionsDir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create revisions dir: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, revisionFile(rev)), []byte(text), 0644)
}

// --- index management ---

func (s *Store) indexPath() string {
	return filepath.Join(s.metaDir(), "index.json")
}

func (s *Store) readIndex() (*Index, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &Index{}, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	return &idx, nil
}

func (s *Store) writeIndex(idx *Index) error {
	if err := os.MkdirAll(s.metaDir(), 0755); err != nil {
		return fmt.Errorf("create %s: %w", s.metaDir(), err)
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	return os.WriteFile(s.indexPath(), data, 0644)
}

func (s *Store) updateIndex(name, text string, rev int) error {
	idx, err := s.readIndex()
	if err != nil {
		return err
	}

	// A document that does not parse still gets an entry, just without
	// the header fields.
	var h header
	_ = yaml.Unmarshal([]byte(text), &h)

	now := s.now()
	entry := IndexEntry{
		Name:      name,
		FlowID:    h.ID,
		Title:     h.Title,
		Owner:     h.Owner,
		Steps:     len(h.Steps),
		Revisions: rev,
		CreatedAt: now,
		UpdatedAt: now,
	}

	found := false
	for i, e := range idx.Flows {
		if e.Name == name {
			entry.CreatedAt = e.CreatedAt
			idx.Flows[i] = entry
			found = true
			break
		}
	}
	if !found {
		idx.Flows = append(idx.Flows, entry)
	}

	// Newest first
	sort.SliceStable(idx.Flows, func(i, j int) bool {
		return idx.Flows[i].UpdatedAt.After(idx.Flows[j].UpdatedAt)
	})

	return s.writeIndex(idx)
}

func (s *Store) removeFromIndex(name string) error {
	idx, err := s.readIndex()
	if err != nil {
		return err
	}

	filtered := idx.Flows[:0]
	for _, e := range idx.Flows {
		if e.Name != name {
			filtered = append(filtered, e)
		}
	}
	idx.Flows = filtered

	return s.writeIndex(idx)
}
