// Package database opens the local SQLite database that keeps the export
// history.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup and migrations
//	└── history/         # Export attempt records
//
// The history is a log. It is never consulted to decide whether a page has
// been exported; that is the job of the export configuration
// (internal/exportstate).
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("~/.config/deardayone/history.db")
//	repo := history.NewRepository(db.DB)
//	events, err := repo.GetRecentEvents(20)
package database
