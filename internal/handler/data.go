package handler

import (
	"net/http"

	"github.com/wardenhq/warden/internal/model"
)

// DataHandler serves the application data surface. The collection is empty
// until domain resources are registered on top of the repository layer.
type DataHandler struct{}

// NewDataHandler creates a new DataHandler.
func NewDataHandler() *DataHandler {
	return &DataHandler{}
}

// List returns the data collection for the authenticated user.
// GET /api/v1/data
func (h *DataHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: []any{},
		Meta:     &model.ResponseMeta{Count: 0},
	})
}
