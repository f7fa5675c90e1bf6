package routes

import (
	"net/http"

	"github.com/medgraph/medrecords-qa/internal/api/handlers"
	"github.com/medgraph/medrecords-qa/internal/api/middleware"
	"github.com/medgraph/medrecords-qa/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	queryHandler   *handlers.QueryHandler
	patientHandler *handlers.PatientHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	queryHandler *handlers.QueryHandler,
	patientHandler *handlers.PatientHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		queryHandler:    queryHandler,
		patientHandler:  patientHandler,
		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Question answering
	r.mux.HandleFunc("POST /api/query", r.queryHandler.HandleQuery)

	// Patients and records
	r.mux.HandleFunc("GET /api/patients", r.patientHandler.ListPatients)
	r.mux.HandleFunc("GET /api/patients/{id}/records", r.patientHandler.GetPatientRecords)
	r.mux.HandleFunc("GET /api/records/search", r.patientHandler.SearchRecords)

	// Analytics
	r.mux.HandleFunc("GET /api/analytics/unanswered-queries", r.queryHandler.GetUnansweredQueries)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
