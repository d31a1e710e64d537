package dayone

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"

	_ "github.com/mattn/go-sqlite3"
)

// JournalReader lists journal names from the Day One Core Data store.
type JournalReader struct {
	dbPath string
}

// NewJournalReader creates a reader for the database at dbPath
func NewJournalReader(dbPath string) *JournalReader {
	return &JournalReader{dbPath: dbPath}
}

// GetDBPath returns the database location.
func (r *JournalReader) GetDBPath() string {
	return r.dbPath
}

// Journals returns the distinct, non-empty journal names, sorted. A missing
// database yields no journals and no error.
func (r *JournalReader) Journals() ([]string, error) {
	if _, err := os.Stat(r.dbPath); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	db, err := sql.Open("sqlite3", "file:"+r.dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open Day One database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT ZNAME FROM ZJOURNAL ORDER BY ZNAME`)
	if err != nil {
		return nil, fmt.Errorf("failed to query journals: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var journals []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if !name.Valid || name.String == "" {
			continue
		}
		if _, dup := seen[name.String]; dup {
			continue
		}
		seen[name.String] = struct{}{}
		journals = append(journals, name.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	sort.Strings(journals)
	return journals, nil
}
