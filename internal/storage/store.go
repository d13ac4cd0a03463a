package storage

import "freelance-escrow-go/internal/models"

// Store mirrors committed jobs and lifecycle events to an external table
// layout for frontends and indexers to query. The in-process ledger remains
// the system of record.
type Store interface {
	SaveJob(job *models.Job) error
	SaveEvent(event *models.Event) error
	GetJobs() ([]models.Job, error)
}
