// Package audit keeps a best-effort history of export attempts.
package audit

import (
	"time"

	"github.com/mrlokans/deardayone/internal/database/history"
	"github.com/mrlokans/deardayone/internal/entities"
	"github.com/mrlokans/deardayone/internal/logger"
	"github.com/mrlokans/deardayone/internal/utils"
)

// Service records export attempts. Recording failures are logged and never
// returned, so history problems cannot affect an export.
type Service struct {
	repo *history.Repository
}

// NewService creates a new audit service.
func NewService(repo *history.Repository) *Service {
	return &Service{repo: repo}
}

// LogPageExport records the outcome of publishing one page.
func (s *Service) LogPageExport(event *entities.ExportEvent, err error) {
	event.Status = entities.ExportStatusSuccess
	if err != nil {
		event.Status = entities.ExportStatusFailed
		event.ErrorMsg = utils.Truncate(err.Error(), 500)
	}

	if logErr := s.repo.LogEvent(event); logErr != nil {
		logger.Warn("Failed to record export event", logErr, logger.Fields{
			"page_id": event.PageID,
			"run_id":  event.RunID,
		})
	}
}

// RecentEvents returns the latest export attempts, most recent first.
func (s *Service) RecentEvents(limit int) ([]entities.ExportEvent, error) {
	return s.repo.GetRecentEvents(limit)
}

// PageEvents returns every recorded attempt for one page.
func (s *Service) PageEvents(notebookGUID, pageID string) ([]entities.ExportEvent, error) {
	return s.repo.GetEventsByPage(notebookGUID, pageID)
}

// RunEvents returns the attempts of one export run in order.
func (s *Service) RunEvents(runID string) ([]entities.ExportEvent, error) {
	return s.repo.GetEventsByRun(runID)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}
