package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/genn/painel-os/internal/orders/types"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrSnapshotNotFound = errors.New("sheet snapshot not found")

type ServiceOrderStore struct {
	db *sqlx.DB
}

// 15 bound columns per row keeps a batch well under Postgres' 65535 parameters.
const insertBatchSize = 1000

const insertServiceOrder = `INSERT INTO service_orders (
		sheet,
		row_number,
		contract_id,
		order_code,
		status,
		discipline,
		budgeter,
		priority,
		technician,
		received_date,
		finalized_date,
		budgeted_date,
		budgeted_value,
		material_value,
		labor_value
	) VALUES (
		:sheet,
		:row_number,
		:contract_id,
		:order_code,
		:status,
		:discipline,
		:budgeter,
		:priority,
		:technician,
		:received_date,
		:finalized_date,
		:budgeted_date,
		:budgeted_value,
		:material_value,
		:labor_value
	)`

const upsertSnapshot = `INSERT INTO sheet_snapshots (sheet, columns, row_count, updated_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (sheet) DO UPDATE SET
		columns = EXCLUDED.columns,
		row_count = EXCLUDED.row_count,
		updated_at = EXCLUDED.updated_at`

func affected(result sql.Result) (int, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

/*
ReplaceSheet swaps the stored snapshot of a sheet for records in a single
transaction and returns the number of rows written. columns are the
canonical columns the sheet carried; they are kept with the snapshot so the
dataset can be rebuilt with the same schema.
*/
func (s *ServiceOrderStore) ReplaceSheet(ctx context.Context, sheet string, columns []string, records []types.Record) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM service_orders WHERE sheet = $1`, sheet); err != nil {
		return 0, fmt.Errorf("failed to clear sheet %s: %w", sheet, err)
	}

	written := 0
	for start := 0; start < len(records); start += insertBatchSize {
		end := min(start+insertBatchSize, len(records))
		batch := make([]types.Record, end-start)
		copy(batch, records[start:end])
		for i := range batch {
			batch[i].Sheet = sheet
		}

		result, err := tx.NamedExecContext(ctx, insertServiceOrder, batch)
		if err != nil {
			return 0, fmt.Errorf("failed to insert rows %d-%d of sheet %s: %w", start+1, end, sheet, err)
		}
		n, err := affected(result)
		if err != nil {
			return 0, fmt.Errorf("failed to insert rows %d-%d of sheet %s: %w", start+1, end, sheet, err)
		}
		written += n
	}

	if columns == nil {
		columns = []string{}
	}
	if _, err := tx.ExecContext(ctx, upsertSnapshot, sheet, pq.Array(columns), written); err != nil {
		return 0, fmt.Errorf("failed to record columns of sheet %s: %w", sheet, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sheet %s: %w", sheet, err)
	}
	return written, nil
}

func (s *ServiceOrderStore) GetBySheet(ctx context.Context, sheet string) ([]types.Record, error) {
	query := `
	SELECT
		id,
		sheet,
		row_number,
		contract_id,
		order_code,
		status,
		discipline,
		budgeter,
		priority,
		technician,
		received_date,
		finalized_date,
		budgeted_date,
		budgeted_value,
		material_value,
		labor_value,
		inserted_at
	FROM
		service_orders
	WHERE
		sheet = $1
	ORDER BY
		row_number
	`
	records := []types.Record{}
	if err := s.db.SelectContext(ctx, &records, query, sheet); err != nil {
		return nil, fmt.Errorf("failed to query service orders of %s: %w", sheet, err)
	}
	return records, nil
}

// GetColumns returns the canonical columns recorded with the last snapshot of a sheet.
func (s *ServiceOrderStore) GetColumns(ctx context.Context, sheet string) ([]string, error) {
	var columns []string
	err := s.db.QueryRowxContext(ctx, `SELECT columns FROM sheet_snapshots WHERE sheet = $1`, sheet).Scan(pq.Array(&columns))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, sheet)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query columns of %s: %w", sheet, err)
	}
	return columns, nil
}
