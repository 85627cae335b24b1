package api

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"

	"forecastwise/cities"
	"forecastwise/models"
	"forecastwise/pipeline"
)

const (
	pageTitleFormat = "ForecastWise: Real-Time + %d-Day Weather Forecast"
	pageTagline     = "Get real-time weather updates and smart temperature predictions."

	headerDateLayout = "Monday, 02 January 2006"
	headerTimeLayout = "03:04 PM"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

// pageTitle names the forecast horizon, e.g. "ForecastWise: Real-Time + 5-Day Weather Forecast"
func pageTitle(horizon int) string {
	return fmt.Sprintf(pageTitleFormat, horizon)
}

// Dashboard runs the pipeline for one city selection
type Dashboard interface {
	Run(ctx context.Context, city models.City) (*models.Report, error)
	Location() *time.Location
	Horizon() int
}

// Ensure the pipeline satisfies the server's needs
var _ Dashboard = (*pipeline.Dashboard)(nil)

// Server represents the dashboard HTTP server
type Server struct {
	dashboard     Dashboard
	server        *http.Server
	logger        *slog.Logger
	historyCredit string
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHistoryCredit names the historical data provider in the page footer
func WithHistoryCredit(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.historyCredit = name
		}
	}
}

// NewServer creates a new dashboard server
func NewServer(dashboard Dashboard, port int, opts ...Option) *Server {
	s := &Server{
		dashboard:     dashboard,
		logger:        slog.Default(),
		historyCredit: "Open-Meteo",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the router with all routes and middleware
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logger)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/", s.handleDashboard)

	router.Route("/api", func(r chi.Router) {
		r.Get("/report/{city}", s.handleGetReport)
		r.Get("/cities", s.handleGetCities)
		r.Get("/schema/report", s.handleGetReportSchema)
		r.Get("/health", s.handleHealthCheck)
	})

	return router
}

// Start begins serving. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting dashboard server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleDashboard renders the HTML page for ?city=, defaulting to the first city
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	city := cities.Default()
	if name := r.URL.Query().Get("city"); name != "" {
		var found bool
		if city, found = cities.Lookup(name); !found {
			http.Error(w, fmt.Sprintf("Unknown city: %s", name), http.StatusNotFound)
			return
		}
	}

	// Stage failures are already logged by the pipeline and carried on the report
	report, _ := s.dashboard.Run(r.Context(), city)

	view := s.newDashboardView(report)

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, view); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to render dashboard", "error", err)
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// handleGetReport returns the report for a city as JSON
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "city")
	city, found := cities.Lookup(name)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("Unknown city: %s", name),
		})
		return
	}

	report, _ := s.dashboard.Run(r.Context(), city)
	writeJSON(w, http.StatusOK, report)
}

// handleGetCities lists the selectable cities in display order
func (s *Server) handleGetCities(w http.ResponseWriter, r *http.Request) {
	all := cities.All()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cities":  all,
		"count":   len(all),
		"default": cities.Default().Name,
	})
}

// handleGetReportSchema returns the JSON Schema of the report document
func (s *Server) handleGetReportSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, jsonschema.Reflect(&models.Report{}))
}

// handleHealthCheck provides a simple health check endpoint
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
