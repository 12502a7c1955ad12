package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	sheetcfg "github.com/genn/painel-os/internal/config"
	"github.com/genn/painel-os/internal/logger"
	"github.com/genn/painel-os/internal/orders/normalize"
	"github.com/genn/painel-os/internal/orders/types"
	"github.com/genn/painel-os/internal/sheets"
	"github.com/genn/painel-os/internal/store"
	"github.com/go-gota/gota/dataframe"
)

type ordersWriter interface {
	ReplaceSheet(ctx context.Context, sheet string, columns []string, records []types.Record) (int, error)
}

type historyWriter interface {
	InsertIngestionHistory(ctx context.Context, history *store.IngestionHistory) error
	UpdateIngestionStatus(ctx context.Context, id int64, update store.StatusUpdate) error
}

type fetchFunc func(ctx context.Context, src sheets.Source) (dataframe.DataFrame, error)

// Loader moves published sheets into the service_orders table, one
// ingestion_history row per sheet.
type Loader struct {
	orders        ordersWriter
	history       historyWriter
	fetch         fetchFunc
	logger        *logger.Logger
	runID         string
	trigger       string
	referenceDate time.Time
}

type LoadResult struct {
	Sheet    string
	Status   string
	Rows     int
	Rejected int
	Err      error
}

func rejectedSummary(report normalize.Report) string {
	parts := make([]string, 0, len(report.Rejected)+1)
	for col, n := range report.Rejected {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", col, n))
		}
	}
	sort.Strings(parts)
	msg := ""
	if len(parts) > 0 {
		msg = "rejected cells: " + strings.Join(parts, ", ")
	}
	if len(report.Missing) > 0 {
		if msg != "" {
			msg += "; "
		}
		msg += "missing columns: " + strings.Join(report.Missing, ", ")
	}
	return msg
}

func (l *Loader) LoadSheet(ctx context.Context, sheet sheetcfg.Sheet) LoadResult {
	const component = "Loader"
	result := LoadResult{Sheet: sheet.Name}

	history := &store.IngestionHistory{
		RunID:         l.runID,
		Sheet:         sheet.Name,
		ReferenceDate: l.referenceDate,
		SourceURL:     sheet.URL,
		TriggerType:   l.trigger,
		Status:        store.StatusInProgress,
	}
	if err := l.history.InsertIngestionHistory(ctx, history); err != nil {
		l.logger.Error(component, "Failed to insert ingestion history: sheet=%s error=%v", sheet.Name, err)
		history = nil
	}

	var report normalize.Report
	result.Rows, report, result.Err = l.load(ctx, sheet)
	result.Rejected = report.RejectedTotal()

	update := store.StatusUpdate{
		RowsLoaded:    result.Rows,
		RejectedCells: result.Rejected,
	}
	switch {
	case result.Err != nil:
		result.Status = store.StatusFailure
		update.Message = result.Err.Error()
		l.logger.Error(component, "Sheet load failed: sheet=%s error=%v", sheet.Name, result.Err)
	case result.Rejected > 0:
		result.Status = store.StatusPartial
		update.Message = rejectedSummary(report)
		l.logger.Warn(component, "Sheet loaded with unparseable cells: sheet=%s rows=%d %s", sheet.Name, result.Rows, update.Message)
	default:
		result.Status = store.StatusSuccess
		update.Message = rejectedSummary(report)
		l.logger.Info(component, "Sheet loaded: sheet=%s rows=%d", sheet.Name, result.Rows)
	}
	update.Status = result.Status

	if history != nil {
		if err := l.history.UpdateIngestionStatus(ctx, history.ID, update); err != nil {
			l.logger.Error(component, "Failed to update ingestion history: id=%d sheet=%s error=%v", history.ID, sheet.Name, err)
		}
	}
	return result
}

func (l *Loader) load(ctx context.Context, sheet sheetcfg.Sheet) (int, normalize.Report, error) {
	df, err := l.fetch(ctx, sheet.Source())
	if err != nil {
		return 0, normalize.Report{}, err
	}
	ds, report, err := normalize.ToDataset(df, sheet.Schema())
	if err != nil {
		return 0, report, fmt.Errorf("failed to normalize sheet %s: %w", sheet.Name, err)
	}
	l.logger.Debug("Loader", "Sheet normalized: sheet=%s rows=%d columns=%d", sheet.Name, ds.Len(), len(ds.Columns()))

	written, err := l.orders.ReplaceSheet(ctx, sheet.Name, types.StoredColumns(ds), types.ToRecords(ds, sheet.Name))
	if err != nil {
		return 0, report, err
	}
	return written, report, nil
}

// LoadAll runs LoadSheet for every sheet, at most maxConcurrent at a time.
// Results keep the order of sheets and a failing sheet never stops the others.
func (l *Loader) LoadAll(ctx context.Context, sheets []sheetcfg.Sheet, maxConcurrent int) []LoadResult {
	const component = "Loader"
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	semaphore := make(chan struct{}, maxConcurrent)
	results := make([]LoadResult, len(sheets))
	var wg sync.WaitGroup

	l.logger.Info(component, "Starting sheet loads: runID=%s sheets=%d maxConcurrent=%d trigger=%s", l.runID, len(sheets), maxConcurrent, l.trigger)
	for i, sheet := range sheets {
		wg.Add(1)
		go func(i int, sheet sheetcfg.Sheet) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[i] = l.LoadSheet(ctx, sheet)
		}(i, sheet)
	}
	wg.Wait()
	return results
}
