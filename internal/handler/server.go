// Package handler implements the HTTP handlers for the busboard API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, stop.go, departure.go, timetable.go) but share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tornimae/busboard/internal/domain"
)

// StopServicer defines the business operations the stop handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type StopServicer interface {
	Create(ctx context.Context, name string) (domain.Stop, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Stop, error)
	List(ctx context.Context) ([]domain.Stop, error)
	Delete(ctx context.Context, id uuid.UUID) (domain.StopDeletion, error)
}

// DepartureServicer defines the departure operations the handlers depend on.
type DepartureServicer interface {
	Create(ctx context.Context, dep domain.Departure) (domain.Departure, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	ListByStop(ctx context.Context, stopID uuid.UUID, dayType *domain.DayType) ([]domain.Departure, error)
	Next(ctx context.Context, q domain.NextQuery) ([]domain.Departure, error)
}

// Importer replaces a stop's timetable from a normalized plan.
type Importer interface {
	Import(ctx context.Context, plan domain.ImportPlan) (domain.ImportResult, error)
}

// Server holds the dependencies of every handler.
type Server struct {
	stops      StopServicer
	departures DepartureServicer
	importer   Importer
	openAPI    []byte
	now        func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithClock replaces time.Now as the source of "now" for upcoming-departure
// lookups and calendar anchoring.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithOpenAPI serves doc at GET /openapi.yaml.
func WithOpenAPI(doc []byte) Option {
	return func(s *Server) { s.openAPI = doc }
}

// NewServer constructs the Server with all its dependencies.
func NewServer(stops StopServicer, departures DepartureServicer, importer Importer, opts ...Option) *Server {
	s := &Server{
		stops:      stops,
		departures: departures,
		importer:   importer,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register mounts every route on r. Middleware must be added to r first.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	if s.openAPI != nil {
		r.Get("/openapi.yaml", s.GetOpenAPI)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/stops", s.ListStops)
		r.Post("/stops", s.CreateStop)
		r.Delete("/stops/{id}", s.DeleteStop)

		r.Post("/departures", s.CreateDeparture)
		r.Get("/departures/{id}", s.ListDepartures)
		r.Delete("/departures/{id}", s.DeleteDeparture)
		r.Get("/departures/{id}/next", s.NextDepartures)
		r.Get("/departures/{id}/calendar.ics", s.DepartureCalendar)

		r.Post("/timetables", s.ImportTimetable)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, notFoundBody("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, requestBody("method not allowed"))
	})
}

// Handler returns a bare router with every route registered. Tests use it;
// the server adds middleware and calls Register itself.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}
