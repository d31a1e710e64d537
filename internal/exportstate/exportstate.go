// Package exportstate persists which notebook is exported to which journal
// and which of its pages have already been published. The exported page set
// is the only record of what has been delivered.
package exportstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mrlokans/deardayone/internal/utils"
)

// ErrNotConfigured is returned by Load when no configuration has been saved yet.
var ErrNotConfigured = errors.New("no configuration found")

// Config is the persisted export configuration.
type Config struct {
	NotebookGUID  string   `json:"remarkable_notebook_guid"`
	NotebookName  string   `json:"remarkable_notebook_name"`
	Journal       string   `json:"dayone_journal"`
	ExportedPages []string `json:"exported_pages"`
}

// ForSelection builds the configuration for a notebook chosen during setup.
// The exported pages of previous carry over only when it refers to the same
// notebook; a different notebook starts from an empty set.
func ForSelection(previous *Config, notebookGUID, notebookName, journal string) *Config {
	cfg := &Config{
		NotebookGUID:  notebookGUID,
		NotebookName:  notebookName,
		Journal:       journal,
		ExportedPages: []string{},
	}
	if previous != nil && previous.NotebookGUID == notebookGUID {
		for _, id := range previous.ExportedPages {
			cfg.MarkExported(id)
		}
	}
	return cfg
}

// IsExported reports whether a page has already been published.
func (c *Config) IsExported(pageID string) bool {
	for _, id := range c.ExportedPages {
		if id == pageID {
			return true
		}
	}
	return false
}

// ExportedSet returns the exported page IDs as a set.
func (c *Config) ExportedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.ExportedPages))
	for _, id := range c.ExportedPages {
		set[id] = struct{}{}
	}
	return set
}

// MarkExported adds a page to the exported set. Pages are never removed.
func (c *Config) MarkExported(pageID string) {
	if c.IsExported(pageID) {
		return
	}
	c.ExportedPages = append(c.ExportedPages, pageID)
}

// Store loads and saves the configuration file.
type Store struct {
	path string
}

// NewStore creates a Store backed by the JSON file at path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the configuration file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the configuration. It returns ErrNotConfigured when the file
// does not exist or names no notebook.
func (s *Store) Load() (*Config, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration %s: %w", s.path, err)
	}
	if cfg.NotebookGUID == "" {
		return nil, ErrNotConfigured
	}
	if cfg.ExportedPages == nil {
		cfg.ExportedPages = []string{}
	}
	return &cfg, nil
}

// Save writes the configuration with write-then-rename, creating the
// containing directory if needed. It is called after every published page.
func (s *Store) Save(cfg *Config) error {
	out := *cfg
	if out.ExportedPages == nil {
		out.ExportedPages = []string{}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	if err := utils.AtomicWriteFile(s.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}
