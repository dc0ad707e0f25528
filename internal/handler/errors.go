package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/tornimae/busboard/internal/domain"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail as {"error":{...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the human-readable message (e.g. "stop not found")
// because the handler is the layer that knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: message}}
}

// validationBody returns an ErrorResponse for a domain validation failure.
// The message is extracted from the wrapped domain.ErrValidation error.
func validationBody(err error) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: unwrapMessage(err)}}
}

// requestBody returns an ErrorResponse for a bad request rejected before
// reaching the service layer (e.g. missing or malformed body).
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}}
}

func internalBody() ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "internal_error", Message: "internal server error"}}
}

// validationMarker is what domain.ErrValidation contributes to a wrapped
// error string.
var validationMarker = domain.ErrValidation.Error() + ": "

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.DepartureService.Create: validation error: departure_time must be in format HH:MM"
// → "departure_time must be in format HH:MM"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, validationMarker); i >= 0 {
		return msg[i+len(validationMarker):]
	}
	return msg
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out; an encode error can only be logged.
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

// writeError maps err to a response. ErrNotFound becomes 404 with notFound
// as the message; ErrValidation becomes validationStatus. Anything else is
// logged with the request id and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFound string, validationStatus int) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, notFoundBody(notFound))
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, validationStatus, validationBody(err))
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, internalBody())
	}
}

// pathID binds the {id} path parameter as a UUID. On failure it writes a
// 400 and returns false.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("invalid id: must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// queryDayType binds the optional day_type query parameter.
// It writes a 400 and returns false when the value is not a known day type.
func queryDayType(w http.ResponseWriter, r *http.Request) (*domain.DayType, bool) {
	var raw *string
	if err := runtime.BindQueryParameter("form", true, false, "day_type", r.URL.Query(), &raw); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("invalid day_type"))
		return nil, false
	}
	if raw == nil {
		return nil, true
	}
	dt := domain.DayType(*raw)
	if !dt.Valid() {
		writeJSON(w, http.StatusBadRequest, requestBody("day_type must be one of weekday, weekend"))
		return nil, false
	}
	return &dt, true
}

// readBody reads the whole request body. Bodies cut off by the size limit
// produce a 413; other read failures a 400.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	b, err := io.ReadAll(r.Body)
	if err == nil {
		return b, true
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, requestBody("request body too large"))
		return nil, false
	}
	writeJSON(w, http.StatusBadRequest, requestBody("could not read request body"))
	return nil, false
}

// decodeJSON reads the body into dst. It writes the error response itself
// and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	b, ok := readBody(w, r)
	if !ok {
		return false
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		writeJSON(w, http.StatusBadRequest, requestBody("request body is required"))
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody(fmt.Sprintf("invalid JSON body: %v", err)))
		return false
	}
	return true
}
