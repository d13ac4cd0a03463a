package storage

import (
	"fmt"
	"os"

	supabase "github.com/nedpals/supabase-go"

	"freelance-escrow-go/internal/models"
)

// SupabaseStore uses the nedpals/supabase-go SDK to mirror jobs and events
// into the "jobs" and "job_events" tables.
type SupabaseStore struct {
	client *supabase.Client
}

// NewSupabaseStore creates a SupabaseStore. It reads SUPABASE_URL and SUPABASE_KEY
// from environment variables if empty values are provided.
func NewSupabaseStore(supabaseURL, supabaseKey string) (*SupabaseStore, error) {
	if supabaseURL == "" {
		supabaseURL = os.Getenv("SUPABASE_URL")
	}
	if supabaseKey == "" {
		supabaseKey = os.Getenv("SUPABASE_KEY")
	}
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("supabase URL and key must be provided via args or SUPABASE_URL / SUPABASE_KEY env vars")
	}

	// CreateClient returns *supabase.Client (no error)
	client := supabase.CreateClient(supabaseURL, supabaseKey)
	return &SupabaseStore{client: client}, nil
}

// SaveJob upserts the job row keyed by id so repeated mirrors of the same
// job overwrite rather than duplicate.
func (s *SupabaseStore) SaveJob(job *models.Job) error {
	var results []models.Job
	err := s.client.DB.From("jobs").Upsert(*job).Execute(&results)
	return err
}

// SaveEvent appends one event row. Events are append-only, so a plain insert.
func (s *SupabaseStore) SaveEvent(event *models.Event) error {
	var results []models.Event
	err := s.client.DB.From("job_events").Insert(*event).Execute(&results)
	return err
}

func (s *SupabaseStore) GetJobs() ([]models.Job, error) {
	var res []models.Job
	err := s.client.DB.From("jobs").Select("*").Execute(&res)
	if err != nil {
		return nil, err
	}
	return res, nil
}
