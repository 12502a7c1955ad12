package main

import (
	"errors"
	"net/http"

	"github.com/genn/painel-os/internal/orders/metrics"
	"github.com/genn/painel-os/internal/orders/normalize"
	"github.com/genn/painel-os/internal/orders/types"
	"github.com/genn/painel-os/internal/response"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"
)

type CountResult struct {
	DateField string `json:"date_field"`
	Contract  string `json:"contract"`
	Count     int    `json:"count"`
}

type SumResult struct {
	ValueField string          `json:"value_field"`
	DateField  string          `json:"date_field,omitempty"`
	Contract   string          `json:"contract"`
	Sum        decimal.Decimal `json:"sum"`
	Display    string          `json:"display"`
}

type StatusResult struct {
	Breakdown  metrics.StatusBreakdown `json:"breakdown"`
	Completion metrics.CompletionRate  `json:"completion"`
}

type DimensionResult struct {
	Dimension   string           `json:"dimension"`
	Measure     string           `json:"measure,omitempty"`
	Aggregation string           `json:"aggregation"`
	Buckets     []metrics.Bucket `json:"buckets"`
}

type GetCountResponse = response.APIResponse[CountResult]
type GetSumResponse = response.APIResponse[SumResult]
type GetStatusResponse = response.APIResponse[StatusResult]
type GetPeriodsResponse = response.APIResponse[[]metrics.PeriodBucket]
type GetDimensionsResponse = response.APIResponse[DimensionResult]

func writeOK[T any](w http.ResponseWriter, data T) {
	if err := writeJSON(w, http.StatusOK, &response.APIResponse[T]{Success: true, Data: data}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Count records
// @Description	Counts the records whose date falls in the range.
// @Tags			Metrics
// @Produce		json
// @Param			sheet		path		string	true	"Sheet name"
// @Param			date_field	query		string	false	"Date column"	default(DATA RECEBIDO)
// @Param			contract	query		string	false	"Contract id"	default(Todos)
// @Param			start_date	query		string	false	"Start date (YYYY-MM-DD)"
// @Param			end_date	query		string	false	"End date (YYYY-MM-DD)"
// @Success		200			{object}	GetCountResponse
// @Failure		422			{object}	response.ErrorResponse	"Unknown or mistyped column"
// @Router			/sheets/{sheet}/metrics/count [get]
func (app *application) handleGetCount(w http.ResponseWriter, r *http.Request) {
	sheet, ok := app.sheetFromRequest(w, r)
	if !ok {
		return
	}
	rg, err := parseRange(r)
	if err != nil {
		app.writeDatasetError(w, r, err)
		return
	}
	ds, ok := app.loadDataset(w, r, sheet)
	if !ok {
		return
	}

	res := CountResult{
		DateField: paramOrDefault(r, "date_field", types.ColReceived),
		Contract:  paramOrDefault(r, "contract", types.AllContracts),
	}
	if res.Count, err = metrics.CountInRange(ds, res.DateField, rg, res.Contract); err != nil {
		app.writeDatasetError(w, r, err)
		return
	}
	writeOK(w, res)
}

// @Summary		Sum a money column
// @Description	Sums a money column, optionally restricted to a date range on date_field.
// @Tags			Metrics
// @Produce		json
// @Param			sheet		path		string	true	"Sheet name"
// @Param			value_field	query		string	false	"Money column"	default(VALOR ORÇADO)
// @Param			date_field	query		string	false	"Date column, required with a range"
// @Param			contract	query		string	false	"Contract id"	default(Todos)
// @Param			start_date	query		string	false	"Start date (YYYY-MM-DD)"
// @Param			end_date	query		string	false	"End date (YYYY-MM-DD)"
// @Success		200			{object}	GetSumResponse
// @Failure		400			{object}	response.ErrorResponse	"Range without date_field"
// @Failure		422			{object}	response.ErrorResponse	"Unknown or mistyped column"
// @Router			/sheets/{sheet}/metrics/sum [get]
func (app *application) handleGetSum(w http.ResponseWriter, r *http.Request) {
	sheet, ok := app.sheetFromRequest(w, r)
	if !ok {
		return
	}
	rg, err := parseRange(r)
	if err != nil {
		app.writeDatasetError(w, r, err)
		return
	}
	res := SumResult{
		ValueField: paramOrDefault(r, "value_field", types.ColBudgetedValue),
		DateField:  r.URL.Query().Get("date_field"),
		Contract:   paramOrDefault(r, "contract", types.AllContracts),
	}
	if res.DateField == "" && !rg.Unbounded() {
		app.writeDatasetError(w, r, badParam("date_field", "", errors.New("required with start_date or end_date")))
		return
	}
	ds, ok := app.loadDataset(w, r, sheet)
	if !ok {
		return
	}

	if res.Sum, err = metrics.SumValue(ds, res.ValueField, rg, res.DateField, res.Contract); err != nil {
		app.writeDatasetError(w, r, err)
		return
	}
	res.Display = normalize.FormatBRL(res.Sum)
	writeOK(w, res)
}

// @Summary		Classify statuses
// @Description	Splits the records into open, closed and uncategorized statuses and reports completion.
// @Tags			Metrics
// @Produce		json
// @Param			sheet		path		string	true	"Sheet name"
// @Param			contract	query		string	false	"Contract id"	default(Todos)
// @Param			date_field	query		string	false	"Date column the range applies to"
// @Param			start_date	query		string	false	"Start date (YYYY-MM-DD)"
// @Param			end_date	query		string	false	"End date (YYYY-MM-DD)"
// @Success		200			{object}	GetStatusResponse
// @Router			/sheets/{sheet}/metrics/status [get]
func (app *application) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	sheet, ok := app.sheetFromRequest(w, r)
	if !ok {
		return
	}
	rg, err := parseRange(r)
	if err != nil {
		app.writeDatasetError(w, r, err)
		return
	}
	dateField := r.URL.Query().Get("date_field")
	if dateField == "" && !rg.Unbounded() {
		app.writeDatasetError(w, r, badParam("date_field", "", errors.New("required with start_date or end_date")))
		return
	}
	ds, ok := app.loadDataset(w, r, sheet)
	if !ok {
		return
	}
	if dateField != "" {
		if ds, err = metrics.InRange(ds, dateField, rg); err != nil {
			app.writeDatasetError(w, r, err)
			return
		}
	}

	breakdown, err := metrics.ClassifyStatuses(ds, sheet.StatusSets, paramOrDefault(r, "contract", types.AllContracts))
	if err != nil {
		app.writeDatasetError(w, r, err)
		return
	}
	writeOK(w, StatusResult{
		Breakdown:  breakdown,
		Completion: metrics.Completion(breakdown.Open, breakdown.Closed),
	})
}

// @Summary		Group by period
// @Description	Counts (and optionally sums value_field) per day, month or year of date_field.
// @Tags			Metrics
// @Produce		json
// @Param			sheet		path		string	true	"Sheet name"
// @Param			date_field	query		string	false	"Date column"	default(DATA RECEBIDO)
// @Param			granularity	query		string	false	"day, month or year"	default(day)
// @Param			value_field	query		string	false	"Money column to sum per period"
// @Param			contract	query		string	false	"Contract id"	default(Todos)
// @Param			start_date	query		string	false	"Start date (YYYY-MM-DD)"
// @Param			end_date	query		string	false	"End date (YYYY-MM-DD)"
// @Success		200			{object}	GetPeriodsResponse
// @Router			/sheets/{sheet}/metrics/periods [get]
func (app *application) handleGetPeriods(w http.ResponseWriter, r *http.Request) {
	sheet, ok := app.sheetFromRequest(w, r)
	if !ok {
		return
	}
	q := metrics.PeriodQuery{
		DateField:  paramOrDefault(r, "date_field", types.ColReceived),
		Contract:   paramOrDefault(r, "contract", types.AllContracts),
		ValueField: r.URL.Query().Get("value_field"),
	}
	var err error
	if q.Range, err = parseRange(r); err != nil {
		app.writeDatasetError(w, r, err)
		return
	}
	granularity := r.URL.Query().Get("granularity")
	if q.Granularity, err = metrics.ParseGranularity(granularity); err != nil {
		app.writeDatasetError(w, r, badParam("granularity", granularity, err))
		return
	}
	ds, ok := app.loadDataset(w, r, sheet)
	if !ok {
		return
	}

	buckets, err := metrics.GroupByPeriod(ds, q)
	if err != nil {
		app.writeDatasetError(w, r, err)
		return
	}
	writeOK(w, buckets)
}

// @Summary		Group by dimension
// @Description	Counts, sums or averages a money column per value of a text column. format=csv returns a CSV file.
// @Tags			Metrics
// @Produce		json
// @Produce		text/csv
// @Param			sheet		path		string	true	"Sheet name"
// @Param			dimension	query		string	true	"Text column"
// @Param			measure		query		string	false	"Money column, required for sum and mean"
// @Param			aggregation	query		string	false	"count, sum or mean"	default(count)
// @Param			contract	query		string	false	"Contract id"	default(Todos)
// @Param			date_field	query		string	false	"Date column the range applies to"
// @Param			start_date	query		string	false	"Start date (YYYY-MM-DD)"
// @Param			end_date	query		string	false	"End date (YYYY-MM-DD)"
// @Param			format		query		string	false	"json or csv"	default(json)
// @Success		200			{object}	GetDimensionsResponse
// @Router			/sheets/{sheet}/metrics/dimensions [get]
func (app *application) handleGetDimensions(w http.ResponseWriter, r *http.Request) {
	sheet, ok := app.sheetFromRequest(w, r)
	if !ok {
		return
	}
	res := DimensionResult{
		Dimension:   r.URL.Query().Get("dimension"),
		Measure:     r.URL.Query().Get("measure"),
		Aggregation: paramOrDefault(r, "aggregation", string(metrics.Count)),
	}
	if res.Dimension == "" {
		app.writeDatasetError(w, r, badParam("dimension", "", errors.New("required")))
		return
	}
	kind, err := metrics.ParseAggregation(res.Aggregation)
	if err != nil {
		app.writeDatasetError(w, r, badParam("aggregation", res.Aggregation, err))
		return
	}
	format := paramOrDefault(r, "format", "json")
	if format != "json" && format != "csv" {
		app.writeDatasetError(w, r, badParam("format", format, errors.New("expected json or csv")))
		return
	}
	rg, err := parseRange(r)
	if err != nil {
		app.writeDatasetError(w, r, err)
		return
	}
	dateField := r.URL.Query().Get("date_field")
	if dateField == "" && !rg.Unbounded() {
		app.writeDatasetError(w, r, badParam("date_field", "", errors.New("required with start_date or end_date")))
		return
	}
	ds, ok := app.loadDataset(w, r, sheet)
	if !ok {
		return
	}

	if ds, err = ds.ForContract(paramOrDefault(r, "contract", types.AllContracts)); err != nil {
		app.writeDatasetError(w, r, err)
		return
	}
	if dateField != "" {
		if ds, err = metrics.InRange(ds, dateField, rg); err != nil {
			app.writeDatasetError(w, r, err)
			return
		}
	}
	groups, err := metrics.GroupByDimension(ds, res.Dimension, res.Measure, kind)
	if err != nil {
		app.writeDatasetError(w, r, err)
		return
	}
	res.Buckets = metrics.SortBuckets(groups)

	if format == "csv" {
		if err := writeBucketsCSV(w, res); err != nil {
			app.logger.Error("api", "failed to write csv: sheet=%s err=%v", sheet.Name, err)
		}
		return
	}
	writeOK(w, res)
}

// writeBucketsCSV renders the buckets as a two-column CSV: the dimension
// values and the aggregated value.
func writeBucketsCSV(w http.ResponseWriter, res DimensionResult) error {
	keys := make([]string, len(res.Buckets))
	values := make([]string, len(res.Buckets))
	for i, b := range res.Buckets {
		keys[i] = b.Key
		values[i] = b.Value.String()
	}
	df := dataframe.New(
		series.New(keys, series.String, res.Dimension),
		series.New(values, series.String, res.Aggregation),
	)
	if err := df.Error(); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return err
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="dimensions.csv"`)
	w.WriteHeader(http.StatusOK)
	return df.WriteCSV(w)
}
