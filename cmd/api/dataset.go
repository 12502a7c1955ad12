package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	sheetcfg "github.com/genn/painel-os/internal/config"
	"github.com/genn/painel-os/internal/orders/normalize"
	"github.com/genn/painel-os/internal/orders/types"
	"github.com/genn/painel-os/internal/sheets"
	"github.com/genn/painel-os/internal/store"
)

const defaultFetchTimeout = 30 * time.Second

var errFetch = errors.New("failed to load sheet")

// datasetLoader produces the dataset a request aggregates over.
type datasetLoader interface {
	Load(ctx context.Context, sheet sheetcfg.Sheet) (*types.Dataset, normalize.Report, error)
}

// sheetLoader fetches the published CSV on every request.
type sheetLoader struct {
	client *http.Client
}

func (l sheetLoader) Load(ctx context.Context, sheet sheetcfg.Sheet) (*types.Dataset, normalize.Report, error) {
	df, err := sheets.Fetch(ctx, l.client, sheet.Source())
	if err != nil {
		return nil, normalize.Report{}, fmt.Errorf("%w: %w", errFetch, err)
	}
	return normalize.ToDataset(df, sheet.Schema())
}

// dbLoader reads the snapshot the ETL stored last, with the columns the
// sheet had when it was loaded.
type dbLoader struct {
	orders interface {
		GetBySheet(ctx context.Context, sheet string) ([]types.Record, error)
		GetColumns(ctx context.Context, sheet string) ([]string, error)
	}
}

func (l dbLoader) Load(ctx context.Context, sheet sheetcfg.Sheet) (*types.Dataset, normalize.Report, error) {
	columns, err := l.orders.GetColumns(ctx, sheet.Name)
	if errors.Is(err, store.ErrSnapshotNotFound) {
		return nil, normalize.Report{}, err
	}
	if err != nil {
		return nil, normalize.Report{}, fmt.Errorf("%w: %w", errFetch, err)
	}
	records, err := l.orders.GetBySheet(ctx, sheet.Name)
	if err != nil {
		return nil, normalize.Report{}, fmt.Errorf("%w: %w", errFetch, err)
	}
	ds, err := types.FromRecords(records, columns)
	if err != nil {
		return nil, normalize.Report{}, err
	}
	return ds, normalize.Report{Rows: len(records)}, nil
}
