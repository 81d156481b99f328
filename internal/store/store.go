// To handle all database interactions. This is our
// data access layer, keeping SQL queries separate from business logic.

package store

import (
	"database/sql"
	"time"

	"leadwatch/internal/models"
)

// Store provides all functions to interact with the database.
type Store struct {
	db *sql.DB
}

// New creates a new Store instance.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordTransition appends one observed status change for a job.
func (s *Store) RecordTransition(jobID, from, to string, at time.Time) error {
	_, err := s.db.Exec(
		"INSERT INTO status_transitions (job_id, from_status, to_status, observed_at) VALUES (?, ?, ?, ?)",
		jobID, from, to, at.UTC(),
	)
	return err
}

// ListTransitions returns the recorded transitions for a job, newest first.
func (s *Store) ListTransitions(jobID string) ([]models.StatusTransition, error) {
	rows, err := s.db.Query(
		"SELECT id, job_id, from_status, to_status, observed_at FROM status_transitions WHERE job_id = ? ORDER BY observed_at DESC, id DESC",
		jobID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []models.StatusTransition
	for rows.Next() {
		var tr models.StatusTransition
		if err := rows.Scan(&tr.ID, &tr.JobID, &tr.FromStatus, &tr.ToStatus, &tr.ObservedAt); err != nil {
			return nil, err
		}
		transitions = append(transitions, tr)
	}
	return transitions, rows.Err()
}

// PruneTransitions deletes history older than the cutoff and returns the
// number of rows removed.
func (s *Store) PruneTransitions(olderThan time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM status_transitions WHERE observed_at < ?", olderThan.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
