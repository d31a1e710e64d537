package history

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/deardayone/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an export event.
func (r *Repository) LogEvent(event *entities.ExportEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.Create(event).Error
}

// GetRecentEvents returns up to limit events, most recent first.
func (r *Repository) GetRecentEvents(limit int) ([]entities.ExportEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []entities.ExportEvent
	err := r.db.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&events).Error
	return events, err
}

// GetEventsByPage returns every recorded attempt for one page, oldest first.
func (r *Repository) GetEventsByPage(notebookGUID, pageID string) ([]entities.ExportEvent, error) {
	var events []entities.ExportEvent
	err := r.db.Where("notebook_guid = ? AND page_id = ?", notebookGUID, pageID).
		Order("created_at ASC").Order("id ASC").
		Find(&events).Error
	return events, err
}

// GetEventsByRun returns the events of one export run in the order they happened.
func (r *Repository) GetEventsByRun(runID string) ([]entities.ExportEvent, error) {
	var events []entities.ExportEvent
	err := r.db.Where("run_id = ?", runID).Order("id ASC").Find(&events).Error
	return events, err
}

// DeleteOldEvents removes events older than the specified time.
// Returns the number of deleted events.
func (r *Repository) DeleteOldEvents(olderThan time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", olderThan).Delete(&entities.ExportEvent{})
	return result.RowsAffected, result.Error
}
