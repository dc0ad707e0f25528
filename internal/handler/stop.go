package handler

import (
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/tornimae/busboard/internal/domain"
)

type stopRequest struct {
	Name string `json:"name"`
}

type stopResponse struct {
	ID   openapi_types.UUID `json:"id"`
	Name string             `json:"name"`
}

type stopDeletionResponse struct {
	Changes           int64 `json:"changes"`
	DeparturesDeleted int64 `json:"departures_deleted"`
}

// ListStops handles GET /api/stops.
func (s *Server) ListStops(w http.ResponseWriter, r *http.Request) {
	stops, err := s.stops.List(r.Context())
	if err != nil {
		writeError(w, r, err, "", http.StatusUnprocessableEntity)
		return
	}

	out := make([]stopResponse, len(stops))
	for i, st := range stops {
		out[i] = stopToResponse(st)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateStop handles POST /api/stops.
func (s *Server) CreateStop(w http.ResponseWriter, r *http.Request) {
	var req stopRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := s.stops.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err, "stop not found", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusCreated, stopToResponse(created))
}

// DeleteStop handles DELETE /api/stops/{id}.
// Deleting a missing stop reports zero changes rather than 404.
func (s *Server) DeleteStop(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	res, err := s.stops.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "stop not found", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, stopDeletionResponse{Changes: res.Stops, DeparturesDeleted: res.Departures})
}

func stopToResponse(s domain.Stop) stopResponse {
	return stopResponse{ID: openapi_types.UUID(s.ID), Name: s.Name}
}
