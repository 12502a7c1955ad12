package store

import (
	"database/sql"
	"time"
)

// IngestionHistory represents the 'ingestion_history' table: one row per
// sheet per ETL run.
type IngestionHistory struct {
	ID            int64        `db:"id" json:"id"`
	RunID         string       `db:"run_id" json:"run_id"`
	Sheet         string       `db:"sheet" json:"sheet"`
	ReferenceDate time.Time    `db:"reference_date" json:"reference_date"`
	SourceURL     string       `db:"source_url" json:"source_url"`
	TriggerType   string       `db:"trigger_type" json:"trigger_type"`
	Status        string       `db:"status" json:"status"`
	RowsLoaded    int          `db:"rows_loaded" json:"rows_loaded"`
	RejectedCells int          `db:"rejected_cells" json:"rejected_cells"`
	Message       string       `db:"message" json:"message"`
	ProcessedAt   time.Time    `db:"processed_at" json:"processed_at"`
	FinishedAt    sql.NullTime `db:"finished_at" json:"-"`
}

// StatusUpdate closes an ingestion run.
type StatusUpdate struct {
	Status        string `json:"status"`
	RowsLoaded    int    `json:"rows_loaded"`
	RejectedCells int    `json:"rejected_cells"`
	Message       string `json:"message,omitempty"`
}
