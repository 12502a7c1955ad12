package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/genn/painel-os/internal/orders/metrics"
	"github.com/genn/painel-os/internal/orders/panels"
	"github.com/genn/painel-os/internal/orders/types"
)

var errBadParam = errors.New("invalid parameter")

func badParam(name, value string, reason error) error {
	return fmt.Errorf("%w %s=%q: %v", errBadParam, name, value, reason)
}

func paramOrDefault(r *http.Request, name, defaultStr string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return defaultStr
}

func parseTime(dateStr string) (time.Time, error) {
	return time.Parse(time.DateOnly, dateStr)
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := parseTime(v)
	if err != nil {
		return time.Time{}, badParam(name, v, errors.New("expected YYYY-MM-DD"))
	}
	return t, nil
}

// parseRange reads start_date and end_date. A missing bound leaves that side open.
func parseRange(r *http.Request) (metrics.DateRange, error) {
	start, err := parseDateParam(r, "start_date")
	if err != nil {
		return metrics.DateRange{}, err
	}
	end, err := parseDateParam(r, "end_date")
	if err != nil {
		return metrics.DateRange{}, err
	}
	rg := metrics.Between(start, end)
	if err := rg.Validate(); err != nil {
		return metrics.DateRange{}, badParam("start_date", r.URL.Query().Get("start_date"), err)
	}
	return rg, nil
}

func parseBoolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, badParam(name, v, errors.New("expected true or false"))
	}
	return b, nil
}

func parseLimit(r *http.Request, fallback, maxLimit int) int {
	l, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || l <= 0 {
		return fallback
	}
	return min(l, maxLimit)
}

func panelQuery(r *http.Request) (panels.Query, error) {
	var q panels.Query
	var err error
	if q.Range, err = parseRange(r); err != nil {
		return q, err
	}
	if q.Day, err = parseDateParam(r, "day"); err != nil {
		return q, err
	}
	if q.IncludeRows, err = parseBoolParam(r, "include_rows"); err != nil {
		return q, err
	}
	q.Contract = paramOrDefault(r, "contract", types.AllContracts)
	return q, nil
}
