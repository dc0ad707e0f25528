package handler

import (
	"bytes"
	"fmt"
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/tornimae/busboard/internal/timetable"
)

type importResponse struct {
	StopID   openapi_types.UUID `json:"stop_id"`
	StopName string             `json:"stop_name"`
	Cleared  int64              `json:"cleared"`
	Inserted int64              `json:"inserted"`
	Skipped  int                `json:"skipped"`
}

// ImportTimetable handles POST /api/timetables.
// The body is one timetable sheet in YAML or JSON. The stop's departures are
// replaced in full; on any error nothing changes.
func (s *Server) ImportTimetable(w http.ResponseWriter, r *http.Request) {
	b, ok := readBody(w, r)
	if !ok {
		return
	}

	sheet, err := timetable.Decode(bytes.NewReader(b))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
		return
	}
	plan, err := sheet.Plan()
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
		return
	}

	res, err := s.importer.Import(r.Context(), plan)
	if err != nil {
		writeError(w, r, err, fmt.Sprintf("stop %q not found", plan.StopName), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{
		StopID:   openapi_types.UUID(res.StopID),
		StopName: res.StopName,
		Cleared:  res.Cleared,
		Inserted: res.Inserted,
		Skipped:  res.Skipped,
	})
}
