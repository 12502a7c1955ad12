package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type IngestionHistoryStore struct {
	db *sqlx.DB
}

const (
	TriggerTypeManual    = "manual"
	TriggerTypeScheduled = "scheduled"
)

const (
	StatusInProgress = "IN_PROGRESS"
	StatusSuccess    = "success"
	StatusFailure    = "failure"
	StatusPartial    = "partial"
)

var ErrIngestionNotFound = errors.New("ingestion record not found")

// ValidStatus reports whether s is a status a run can be closed with.
func ValidStatus(s string) bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusPartial:
		return true
	}
	return false
}

func ValidTrigger(s string) bool {
	return s == TriggerTypeManual || s == TriggerTypeScheduled
}

func (ih *IngestionHistoryStore) InsertIngestionHistory(ctx context.Context, history *IngestionHistory) error {
	query := `INSERT INTO ingestion_history (
		run_id,
		sheet,
		reference_date,
		source_url,
		trigger_type,
		status,
		rows_loaded,
		rejected_cells,
		message
	) VALUES (
		:run_id,
		:sheet,
		:reference_date,
		:source_url,
		:trigger_type,
		:status,
		:rows_loaded,
		:rejected_cells,
		:message
	) RETURNING id, processed_at`

	rows, err := ih.db.NamedQueryContext(ctx, query, history)
	if err != nil {
		return fmt.Errorf("failed to insert ingestion history: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&history.ID, &history.ProcessedAt); err != nil {
			return fmt.Errorf("failed to scan ingestion id: %w", err)
		}
	}
	return rows.Err()
}

func (ih *IngestionHistoryStore) GetLatest(ctx context.Context, limit int) ([]IngestionHistory, error) {
	query := `
	SELECT
		id,
		run_id,
		sheet,
		reference_date,
		source_url,
		trigger_type,
		status,
		rows_loaded,
		rejected_cells,
		message,
		processed_at,
		finished_at
	FROM
		ingestion_history
	ORDER BY
		processed_at DESC, id DESC
	LIMIT $1
	`
	history := []IngestionHistory{}
	if err := ih.db.SelectContext(ctx, &history, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query ingestion history: %w", err)
	}
	return history, nil
}

func (ih *IngestionHistoryStore) UpdateIngestionStatus(ctx context.Context, id int64, update StatusUpdate) error {
	query := `
	UPDATE ingestion_history
	SET
		status = $2,
		rows_loaded = $3,
		rejected_cells = $4,
		message = $5,
		finished_at = NOW()
	WHERE id = $1
	`
	result, err := ih.db.ExecContext(ctx, query, id, update.Status, update.RowsLoaded, update.RejectedCells, update.Message)
	if err != nil {
		return fmt.Errorf("failed to update ingestion %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrIngestionNotFound
	}
	return nil
}
