package entities

import "time"

type ExportStatus string

const (
	ExportStatusSuccess ExportStatus = "success"
	ExportStatusFailed  ExportStatus = "failed"
)

// ExportEvent records one attempt to publish a notebook page. It is a log
// only; whether a page counts as exported is decided by the export
// configuration.
type ExportEvent struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	RunID        string       `gorm:"index;size:36" json:"run_id"`
	NotebookGUID string       `gorm:"index;size:64" json:"notebook_guid"`
	NotebookName string       `gorm:"size:255" json:"notebook_name"`
	PageID       string       `gorm:"index;size:64" json:"page_id"`
	Position     int          `json:"position"` // 1-based position in the notebook
	Journal      string       `gorm:"size:255" json:"journal"`
	EntryID      string       `gorm:"size:255" json:"entry_id,omitempty"`
	Status       ExportStatus `gorm:"size:20" json:"status"`
	ErrorMsg     string       `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
}

func (ExportEvent) TableName() string {
	return "export_events"
}
