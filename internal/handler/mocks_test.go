package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tornimae/busboard/internal/domain"
	"github.com/tornimae/busboard/internal/handler"
)

// mockStopServicer is a test double for handler.StopServicer.
// Set only the method fields your test needs.
type mockStopServicer struct {
	create  func(ctx context.Context, name string) (domain.Stop, error)
	getByID func(ctx context.Context, id uuid.UUID) (domain.Stop, error)
	list    func(ctx context.Context) ([]domain.Stop, error)
	delete  func(ctx context.Context, id uuid.UUID) (domain.StopDeletion, error)
}

func (m *mockStopServicer) Create(ctx context.Context, name string) (domain.Stop, error) {
	return m.create(ctx, name)
}
func (m *mockStopServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Stop, error) {
	return m.getByID(ctx, id)
}
func (m *mockStopServicer) List(ctx context.Context) ([]domain.Stop, error) {
	return m.list(ctx)
}
func (m *mockStopServicer) Delete(ctx context.Context, id uuid.UUID) (domain.StopDeletion, error) {
	return m.delete(ctx, id)
}

// mockDepartureServicer is a test double for handler.DepartureServicer.
type mockDepartureServicer struct {
	create     func(ctx context.Context, dep domain.Departure) (domain.Departure, error)
	delete     func(ctx context.Context, id uuid.UUID) (int64, error)
	listByStop func(ctx context.Context, stopID uuid.UUID, dayType *domain.DayType) ([]domain.Departure, error)
	next       func(ctx context.Context, q domain.NextQuery) ([]domain.Departure, error)
}

func (m *mockDepartureServicer) Create(ctx context.Context, dep domain.Departure) (domain.Departure, error) {
	return m.create(ctx, dep)
}
func (m *mockDepartureServicer) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return m.delete(ctx, id)
}
func (m *mockDepartureServicer) ListByStop(ctx context.Context, stopID uuid.UUID, dayType *domain.DayType) ([]domain.Departure, error) {
	return m.listByStop(ctx, stopID, dayType)
}
func (m *mockDepartureServicer) Next(ctx context.Context, q domain.NextQuery) ([]domain.Departure, error) {
	return m.next(ctx, q)
}

// mockImporter is a test double for handler.Importer.
type mockImporter struct {
	importPlan func(ctx context.Context, plan domain.ImportPlan) (domain.ImportResult, error)
}

func (m *mockImporter) Import(ctx context.Context, plan domain.ImportPlan) (domain.ImportResult, error) {
	return m.importPlan(ctx, plan)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.StopServicer      = (*mockStopServicer)(nil)
	_ handler.DepartureServicer = (*mockDepartureServicer)(nil)
	_ handler.Importer          = (*mockImporter)(nil)
)

// wednesdayMorning is the fixed "now" of handler tests.
var wednesdayMorning = time.Date(2025, 6, 4, 9, 0, 0, 0, time.Local)

func newHTTPHandler(stops handler.StopServicer, deps handler.DepartureServicer, imp handler.Importer) http.Handler {
	srv := handler.NewServer(stops, deps, imp, handler.WithClock(func() time.Time { return wednesdayMorning }))
	return srv.Handler()
}

// do runs one request through h and returns the recorder.
func do(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// jsonBody marshals v and returns it as an io.Reader for use as a request body.
func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// decodeError decodes an error response body.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var errResp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	return errResp
}
