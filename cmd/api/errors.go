package main

import (
	"errors"
	"net/http"

	"github.com/genn/painel-os/internal/orders/types"
	"github.com/genn/painel-os/internal/store"
)

// writeDatasetError maps a load or aggregation failure to its status code.
// Schema errors keep their message so a wrong column never reads as a zero.
func (app *application) writeDatasetError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadParam):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrSnapshotNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrSchema):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, errFetch):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		app.logger.Error("api", "request failed: path=%s err=%v", r.URL.Path, err)
	} else {
		app.logger.Debug("api", "request rejected: path=%s status=%d err=%v", r.URL.Path, status, err)
	}
	writeJSONError(w, status, err.Error())
}
