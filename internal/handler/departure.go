package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/tornimae/busboard/internal/calendar"
	"github.com/tornimae/busboard/internal/domain"
)

type departureRequest struct {
	StopID        string `json:"stop_id"`
	DepartureTime string `json:"departure_time"`
	DayType       string `json:"day_type"`
	Annotation    string `json:"annotation"`
}

type departureResponse struct {
	ID            openapi_types.UUID `json:"id"`
	StopID        openapi_types.UUID `json:"stop_id"`
	StopName      string             `json:"stop_name,omitempty"`
	DepartureTime string             `json:"departure_time"`
	DayType       domain.DayType     `json:"day_type"`
	Annotation    string             `json:"annotation,omitempty"`
}

type changesResponse struct {
	Changes int64 `json:"changes"`
}

// CreateDeparture handles POST /api/departures.
func (s *Server) CreateDeparture(w http.ResponseWriter, r *http.Request) {
	var req departureRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var stopID uuid.UUID
	if req.StopID != "" {
		id, err := uuid.Parse(req.StopID)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, requestBody("stop_id must be a UUID"))
			return
		}
		stopID = id
	}

	created, err := s.departures.Create(r.Context(), domain.Departure{
		StopID:     stopID,
		Time:       req.DepartureTime,
		DayType:    domain.DayType(req.DayType),
		Annotation: req.Annotation,
	})
	if err != nil {
		writeError(w, r, err, "stop not found", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusCreated, departureToResponse(created))
}

// ListDepartures handles GET /api/departures/{id}, where id is a stop id.
// Unknown stops yield an empty list.
func (s *Server) ListDepartures(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	dayType, ok := queryDayType(w, r)
	if !ok {
		return
	}

	deps, err := s.departures.ListByStop(r.Context(), id, dayType)
	if err != nil {
		writeError(w, r, err, "stop not found", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, departuresToResponse(deps))
}

// NextDepartures handles GET /api/departures/{id}/next.
//
// Without parameters it answers for the server's current local time and
// day type. ?at=HH:MM, ?day_type= and ?limit= override each part.
func (s *Server) NextDepartures(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	dayType, ok := queryDayType(w, r)
	if !ok {
		return
	}
	var (
		at    *string
		limit *int
	)
	if err := runtime.BindQueryParameter("form", true, false, "at", r.URL.Query(), &at); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("invalid at"))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("limit must be an integer"))
		return
	}

	now := s.now()
	q := domain.NextQuery{
		StopID:  id,
		Clock:   domain.ClockOf(now),
		DayType: domain.DayTypeOf(now),
	}
	if at != nil {
		q.Clock = *at
	}
	if dayType != nil {
		q.DayType = *dayType
	}
	if limit != nil {
		if *limit == 0 {
			writeJSON(w, http.StatusBadRequest, requestBody("limit must be between 1 and 50"))
			return
		}
		q.Limit = *limit
	}

	deps, err := s.departures.Next(r.Context(), q)
	if err != nil {
		writeError(w, r, err, "stop not found", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, departuresToResponse(deps))
}

// DeleteDeparture handles DELETE /api/departures/{id}.
// Deleting an unknown id reports zero changes.
func (s *Server) DeleteDeparture(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	n, err := s.departures.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "departure not found", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, changesResponse{Changes: n})
}

// DepartureCalendar handles GET /api/departures/{id}/calendar.ics.
func (s *Server) DepartureCalendar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	stop, err := s.stops.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "stop not found", http.StatusBadRequest)
		return
	}
	deps, err := s.departures.ListByStop(r.Context(), id, nil)
	if err != nil {
		writeError(w, r, err, "stop not found", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := calendar.Write(&buf, stop, deps, s.now()); err != nil {
		writeError(w, r, err, "", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "departures-"+id.String()+".ics"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func departureToResponse(d domain.Departure) departureResponse {
	return departureResponse{
		ID:            openapi_types.UUID(d.ID),
		StopID:        openapi_types.UUID(d.StopID),
		StopName:      d.StopName,
		DepartureTime: d.Time,
		DayType:       d.DayType.OrDefault(),
		Annotation:    d.Annotation,
	}
}

// departuresToResponse always returns a non-nil slice so empty results
// encode as [] rather than null.
func departuresToResponse(deps []domain.Departure) []departureResponse {
	out := make([]departureResponse, len(deps))
	for i, d := range deps {
		out[i] = departureToResponse(d)
	}
	return out
}
