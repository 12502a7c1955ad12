package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/genn/painel-os/internal/response"
	"github.com/genn/painel-os/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type GetIngestionHistoryResponse = response.APIResponse[[]store.IngestionHistory]
type CreateIngestionResponse = response.APIResponse[*store.IngestionHistory]
type UpdateIngestionStatusResponse = response.APIResponse[store.StatusUpdate]

func (app *application) requireHistory(w http.ResponseWriter) bool {
	if app.store.IngestionHistory == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "ingestion history needs a database (set DB_ADDR)")
		return false
	}
	return true
}

// @Summary		Get ingestion history
// @Description	Get a list of the latest ingestion records.
// @Tags			Ingestion
// @Produce		json
// @Param			limit	query		int							false	"Limit the number of results"	default(10)
// @Success		200		{object}	GetIngestionHistoryResponse	"Successfully retrieved latest ingestion records"
// @Failure		500		{object}	response.ErrorResponse		"Failed to get ingestion history"
// @Failure		503		{object}	response.ErrorResponse		"No database configured"
// @Router			/ingestion/history [get]
func (app *application) handleGetIngestionHistory(w http.ResponseWriter, r *http.Request) {
	if !app.requireHistory(w) {
		return
	}
	limit := parseLimit(r, 10, 100)

	ctx := r.Context()
	data, err := app.store.IngestionHistory.GetLatest(ctx, limit)
	if err != nil {
		app.logger.Error("api", "failed to get ingestion history: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to get ingestion history: "+err.Error())
		return
	}

	response := &GetIngestionHistoryResponse{
		Success: true,
		Data:    data,
		Message: "Successfully retrieved latest ingestion records",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Create ingestion record
// @Description	Creates a new ingestion record with IN_PROGRESS status.
// @Tags			Ingestion
// @Accept			json
// @Produce		json
// @Param			ingestion	body		object{sheet:string,reference_date:string,trigger_type:string}	true	"Ingestion record details"
// @Success		201			{object}	CreateIngestionResponse											"Ingestion record initialized"
// @Failure		400			{object}	response.ErrorResponse											"Invalid request payload or missing fields"
// @Failure		404			{object}	response.ErrorResponse											"Unknown sheet"
// @Failure		500			{object}	response.ErrorResponse											"Failed to create ingestion record"
// @Router			/ingestion [post]
func (app *application) handleCreateIngestion(w http.ResponseWriter, r *http.Request) {
	if !app.requireHistory(w) {
		return
	}
	var input struct {
		Sheet         string `json:"sheet"`
		ReferenceDate string `json:"reference_date"`
		TriggerType   string `json:"trigger_type"`
	}

	if err := readJSON(w, r, &input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if input.Sheet == "" || input.ReferenceDate == "" || input.TriggerType == "" {
		writeJSONError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	if !store.ValidTrigger(input.TriggerType) {
		writeJSONError(w, http.StatusBadRequest, "trigger_type must be manual or scheduled")
		return
	}

	refDate, err := parseTime(input.ReferenceDate)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid reference_date format (YYYY-MM-DD expected)")
		return
	}

	sheet, ok := app.sheets.Sheet(input.Sheet)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "unknown sheet "+input.Sheet)
		return
	}

	history := &store.IngestionHistory{
		RunID:         uuid.New().String(),
		Sheet:         sheet.Name,
		ReferenceDate: refDate,
		SourceURL:     sheet.URL,
		TriggerType:   input.TriggerType,
		Status:        store.StatusInProgress,
	}

	ctx := r.Context()
	if err := app.store.IngestionHistory.InsertIngestionHistory(ctx, history); err != nil {
		app.logger.Error("api", "failed to create ingestion record: sheet=%s err=%v", sheet.Name, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to create ingestion record: "+err.Error())
		return
	}

	response := &CreateIngestionResponse{
		Success: true,
		Data:    history,
		Message: "Ingestion record initialized with IN_PROGRESS status",
	}

	if err := writeJSON(w, http.StatusCreated, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Close ingestion record
// @Description	Sets the final status and counts of an ingestion run.
// @Tags			Ingestion
// @Accept			json
// @Produce		json
// @Param			id		path		int																						true	"Ingestion id"
// @Param			status	body		object{status:string,rows_loaded:int,rejected_cells:int,message:string}	true	"Final status"
// @Success		200		{object}	UpdateIngestionStatusResponse
// @Failure		400		{object}	response.ErrorResponse	"Invalid id or status"
// @Failure		404		{object}	response.ErrorResponse	"Ingestion record not found"
// @Router			/ingestion/{id}/status [patch]
func (app *application) handleUpdateIngestionStatus(w http.ResponseWriter, r *http.Request) {
	if !app.requireHistory(w) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid ingestion id")
		return
	}

	var input struct {
		Status        string `json:"status"`
		RowsLoaded    int    `json:"rows_loaded"`
		RejectedCells int    `json:"rejected_cells"`
		Message       string `json:"message"`
	}
	if err := readJSON(w, r, &input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if !store.ValidStatus(input.Status) {
		writeJSONError(w, http.StatusBadRequest, "status must be success, failure or partial")
		return
	}

	update := store.StatusUpdate{
		Status:        input.Status,
		RowsLoaded:    input.RowsLoaded,
		RejectedCells: input.RejectedCells,
		Message:       input.Message,
	}
	err = app.store.IngestionHistory.UpdateIngestionStatus(r.Context(), id, update)
	switch {
	case errors.Is(err, store.ErrIngestionNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		app.logger.Error("api", "failed to update ingestion: id=%d err=%v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to update ingestion status")
		return
	}

	response := &UpdateIngestionStatusResponse{
		Success: true,
		Data:    update,
		Message: "Ingestion status updated",
	}
	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
