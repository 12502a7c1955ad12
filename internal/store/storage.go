package store

import (
	"context"

	"github.com/genn/painel-os/internal/orders/types"
	"github.com/jmoiron/sqlx"
)

type Storage struct {
	ServiceOrders interface {
		ReplaceSheet(ctx context.Context, sheet string, columns []string, records []types.Record) (int, error)
		GetBySheet(ctx context.Context, sheet string) ([]types.Record, error)
		GetColumns(ctx context.Context, sheet string) ([]string, error)
	}

	IngestionHistory interface {
		InsertIngestionHistory(ctx context.Context, history *IngestionHistory) error
		GetLatest(ctx context.Context, limit int) ([]IngestionHistory, error)
		UpdateIngestionStatus(ctx context.Context, id int64, update StatusUpdate) error
	}
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		ServiceOrders:    &ServiceOrderStore{db: db},
		IngestionHistory: &IngestionHistoryStore{db: db},
	}
}
