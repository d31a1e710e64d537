// Package remarkable reads the reMarkable desktop app's on-disk document store.
//
// The store is a flat directory holding, per document, an <id>.metadata and
// an <id>.content JSON descriptor plus an <id>/ subdirectory with one
// <pageID>.rm stroke file per page. Discovery is best effort: descriptors
// that cannot be read or parsed are skipped, never reported.
package remarkable

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// ErrStoreNotFound is returned when the document store root does not exist.
var ErrStoreNotFound = errors.New("reMarkable data directory not found")

// Store reads notebooks and pages from a document store root.
type Store struct {
	Root string
}

// NewStore creates a Store rooted at dataDir
func NewStore(dataDir string) *Store {
	return &Store{Root: dataDir}
}

// Check verifies that the store root is an existing directory.
func (s *Store) Check() error {
	info, err := os.Stat(s.Root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrStoreNotFound, s.Root)
	}
	return nil
}

func (s *Store) metadataPath(id string) string {
	return filepath.Join(s.Root, id+metadataExt)
}

func (s *Store) contentPath(id string) string {
	return filepath.Join(s.Root, id+contentExt)
}

// StrokePath returns where the stroke file of a page lives. ok is false for
// identifiers that are not a single path element, which cannot name a page
// inside the notebook's directory.
func (s *Store) StrokePath(notebookID, pageID string) (path string, ok bool) {
	if !validPageID(pageID) {
		return "", false
	}
	return filepath.Join(s.Root, notebookID, pageID+strokeExt), true
}

// HasStroke reports whether a page has stroke content on disk.
func (s *Store) HasStroke(notebookID, pageID string) bool {
	path, ok := s.StrokePath(notebookID, pageID)
	if !ok {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func validPageID(id string) bool {
	return id != "" && id != "." && id != ".." && filepath.Base(id) == id && !strings.ContainsAny(id, `/\`)
}

// NotebookExists reports whether the metadata descriptor of a document is present.
func (s *Store) NotebookExists(id string) bool {
	_, err := os.Stat(s.metadataPath(id))
	return err == nil
}

// Notebooks lists the handwritten notebooks in the store, sorted
// case-insensitively by name. Folders, trashed documents, PDF/EPUB imports
// and unreadable descriptors are left out.
func (s *Store) Notebooks() ([]Notebook, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var notebooks []Notebook
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != metadataExt {
			continue
		}
		if nb, ok := s.notebook(strings.TrimSuffix(name, metadataExt)); ok {
			notebooks = append(notebooks, nb)
		}
	}

	fold := cases.Fold()
	keys := make(map[string]string, len(notebooks))
	for _, nb := range notebooks {
		keys[nb.ID] = fold.String(nb.Name)
	}
	sort.SliceStable(notebooks, func(i, j int) bool {
		return keys[notebooks[i].ID] < keys[notebooks[j].ID]
	})

	return notebooks, nil
}

// notebook builds the record for one candidate document; ok is false when
// the document is not an exportable notebook or cannot be read.
func (s *Store) notebook(id string) (Notebook, bool) {
	var meta metadata
	if !readJSON(s.metadataPath(id), &meta) {
		return Notebook{}, false
	}
	if meta.Type != DocumentType || meta.Parent == TrashParent {
		return Notebook{}, false
	}

	var c content
	if !readJSON(s.contentPath(id), &c) {
		return Notebook{}, false
	}
	if c.FileType != NotebookFileType {
		return Notebook{}, false
	}

	raw := c.rawPages()
	withContent := 0
	for _, p := range c.pages() {
		pageID := ""
		if p.ID != nil {
			pageID = *p.ID
		}
		if s.HasStroke(id, pageID) {
			withContent++
		}
	}

	return Notebook{
		ID:               id,
		Name:             meta.name(),
		Parent:           meta.Parent,
		CreatedMs:        meta.CreatedTime.ms(),
		ModifiedMs:       meta.LastModified.ms(),
		PageCount:        len(raw),
		ContentPageCount: withContent,
	}, true
}

// FolderName resolves a parent identifier to the folder's visible name.
// Returns "" for the root, the trash, or when the folder cannot be read.
func (s *Store) FolderName(parentID string) string {
	if parentID == "" || parentID == TrashParent {
		return ""
	}
	var meta metadata
	if !readJSON(s.metadataPath(parentID), &meta) || meta.VisibleName == nil {
		return ""
	}
	return *meta.VisibleName
}

// Pages returns the declared pages of a notebook in display order. Entries
// without an identifier are dropped. Unlike discovery, a missing or malformed
// content descriptor is an error.
func (s *Store) Pages(notebookID string) ([]Page, error) {
	data, err := os.ReadFile(s.contentPath(notebookID))
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}

	var c content
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse content file %s: %w", s.contentPath(notebookID), err)
	}

	var pages []Page
	for _, p := range c.pages() {
		if p.ID == nil {
			continue
		}
		pages = append(pages, Page{
			ID:         *p.ID,
			ModifiedMs: p.modifiedMs(),
		})
	}
	return pages, nil
}

// readJSON decodes a JSON file into v, reporting success.
func readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
