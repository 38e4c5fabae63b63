package store

import (
	"database/sql"
	"fmt"

	"github.com/hostfold/hostfold/internal/model"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func scanActivity(scanner interface{ Scan(...any) error }) (*model.ActivityLog, error) {
	var a model.ActivityLog
	var actorID sql.NullInt64

	err := scanner.Scan(
		&a.ID, &actorID, &a.Action, &a.Resource, &a.ResourceID,
		&a.Description, &a.Status, &a.Metadata, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if actorID.Valid {
		a.ActorID = &actorID.Int64
	}
	return &a, nil
}

const activityCols = `id, actor_id, action, resource, resource_id, description, status, metadata, created_at`

// Append writes one audit entry. Entries are never updated or deleted.
func (s *ActivityStore) Append(actorID *int64, action, resource string, resourceID int64, description, status, metadata string) (*model.ActivityLog, error) {
	var aID sql.NullInt64
	if actorID != nil {
		aID = sql.NullInt64{Int64: *actorID, Valid: true}
	}
	if metadata == "" {
		metadata = "{}"
	}

	result, err := s.db.Exec(
		`INSERT INTO activity_logs (actor_id, action, resource, resource_id, description, status, metadata) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		aID, action, resource, resourceID, description, status, metadata,
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+activityCols+` FROM activity_logs WHERE id = ?`, id)
	return scanActivity(row)
}

func (s *ActivityStore) ListByResource(resource string, resourceID int64) ([]model.ActivityLog, error) {
	rows, err := s.db.Query(
		`SELECT `+activityCols+` FROM activity_logs WHERE resource = ? AND resource_id = ? ORDER BY created_at DESC, id DESC`,
		resource, resourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var entries []model.ActivityLog
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entries = append(entries, *a)
	}
	return entries, rows.Err()
}

func (s *ActivityStore) ListRecent(limit int) ([]model.ActivityLog, error) {
	rows, err := s.db.Query(
		`SELECT `+activityCols+` FROM activity_logs ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent activity: %w", err)
	}
	defer rows.Close()

	var entries []model.ActivityLog
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entries = append(entries, *a)
	}
	return entries, rows.Err()
}
