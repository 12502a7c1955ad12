package main

import (
	"context"
	"net/http"

	sheetcfg "github.com/genn/painel-os/internal/config"
	"github.com/genn/painel-os/internal/orders/panels"
	"github.com/genn/painel-os/internal/orders/types"
	"github.com/genn/painel-os/internal/response"
	"github.com/go-chi/chi/v5"
)

type SheetInfo struct {
	Name      string            `json:"name"`
	Title     string            `json:"title"`
	Panels    []string          `json:"panels"`
	Contracts []panels.Contract `json:"contracts"`
}

type GetSheetsResponse = response.APIResponse[[]SheetInfo]
type GetPanelResponse = response.APIResponse[any]

// @Summary		List sheets
// @Description	Lists the configured sheets and the panels each one offers.
// @Tags			Sheets
// @Produce		json
// @Success		200	{object}	GetSheetsResponse
// @Router			/sheets [get]
func (app *application) handleGetSheets(w http.ResponseWriter, r *http.Request) {
	data := make([]SheetInfo, 0, len(app.sheets.Sheets))
	for _, s := range app.sheets.Sheets {
		data = append(data, SheetInfo{Name: s.Name, Title: s.Title, Panels: s.Panels, Contracts: s.Contracts})
	}

	response := &GetSheetsResponse{
		Success: true,
		Data:    data,
	}
	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

func (app *application) sheetFromRequest(w http.ResponseWriter, r *http.Request) (sheetcfg.Sheet, bool) {
	name := chi.URLParam(r, "sheet")
	sheet, ok := app.sheets.Sheet(name)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "unknown sheet "+name)
	}
	return sheet, ok
}

// loadDataset fetches the dataset of the request's sheet, writing the error
// response itself when it fails.
func (app *application) loadDataset(w http.ResponseWriter, r *http.Request, sheet sheetcfg.Sheet) (*types.Dataset, bool) {
	ctx := r.Context()
	if app.config.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.config.fetchTimeout)
		defer cancel()
	}

	ds, report, err := app.loader.Load(ctx, sheet)
	if err != nil {
		app.writeDatasetError(w, r, err)
		return nil, false
	}
	if n := report.RejectedTotal(); n > 0 {
		app.logger.Debug("api", "unparseable cells stored as empty: sheet=%s count=%d", sheet.Name, n)
	}
	if len(report.Missing) > 0 {
		app.logger.Debug("api", "sheet lacks columns: sheet=%s columns=%v", sheet.Name, report.Missing)
	}
	return ds, true
}

// @Summary		Get panel
// @Description	Builds one of the dashboard panels of a sheet.
// @Tags			Sheets
// @Produce		json
// @Param			sheet			path		string	true	"Sheet name"
// @Param			panel			path		string	true	"daily, budget, weekly or overview"
// @Param			contract		query		string	false	"Contract id"	default(Todos)
// @Param			start_date		query		string	false	"Start date (YYYY-MM-DD)"
// @Param			end_date		query		string	false	"End date (YYYY-MM-DD)"
// @Param			day				query		string	false	"Reference day (YYYY-MM-DD)"
// @Param			include_rows	query		bool	false	"Include the detail rows"
// @Success		200				{object}	GetPanelResponse
// @Failure		400				{object}	response.ErrorResponse	"Invalid parameter"
// @Failure		404				{object}	response.ErrorResponse	"Unknown sheet or panel"
// @Failure		422				{object}	response.ErrorResponse	"The sheet lacks a required column"
// @Failure		502				{object}	response.ErrorResponse	"The sheet could not be fetched"
// @Router			/sheets/{sheet}/panels/{panel} [get]
func (app *application) handleGetPanel(w http.ResponseWriter, r *http.Request) {
	sheet, ok := app.sheetFromRequest(w, r)
	if !ok {
		return
	}
	kind, err := panels.ParseKind(chi.URLParam(r, "panel"))
	if err != nil || !sheet.Supports(kind) {
		writeJSONError(w, http.StatusNotFound, "sheet "+sheet.Name+" has no panel "+chi.URLParam(r, "panel"))
		return
	}
	q, err := panelQuery(r)
	if err != nil {
		app.writeDatasetError(w, r, err)
		return
	}

	ds, ok := app.loadDataset(w, r, sheet)
	if !ok {
		return
	}
	data, err := panels.Build(kind, ds, sheet.PanelConfig(), q)
	if err != nil {
		app.writeDatasetError(w, r, err)
		return
	}

	response := &GetPanelResponse{
		Success: true,
		Data:    data,
		Message: sheet.Title,
	}
	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
