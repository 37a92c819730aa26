// Package http assembles the arena server's HTTP surface: the websocket
// upgrade endpoint, a Prometheus scrape endpoint, and a health check, behind
// chi middleware and a CORS policy. Grounded on the pack's own chi+cors game
// server router (fight-club-go's internal/api/router.go), generalized from
// a REST game-state API to a single websocket mount plus ops endpoints.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig bundles the dependencies needed to build the mux.
type RouterConfig struct {
	// WebSocketHandler serves the /ws upgrade endpoint.
	WebSocketHandler http.Handler

	// Registerer collects Prometheus metrics exposed at /metrics. If nil,
	// the global default registry is used.
	Registerer prometheus.Gatherer

	// AllowedOrigins lists the CORS origins permitted to open a websocket or
	// call /healthz from a browser client. Defaults to "*" if empty.
	AllowedOrigins []string

	// ConnectRateLimiter throttles /ws upgrade attempts per client IP. If
	// nil, a default of 5 attempts/sec with a burst of 10 is used.
	ConnectRateLimiter *IPRateLimiter

	// DisableLogging suppresses the request logger middleware (useful in
	// benchmarks and tests).
	DisableLogging bool
}

// NewRouter builds the HTTP mux. It is pure: no listener is opened and no
// goroutine is started, so it's safe to pass directly to httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	if cfg.WebSocketHandler != nil {
		limiter := cfg.ConnectRateLimiter
		if limiter == nil {
			limiter = NewIPRateLimiter(5, 10)
		}
		r.With(limiter.Middleware).Handle("/ws", cfg.WebSocketHandler)
	}

	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if cfg.Registerer != nil {
		gatherer = cfg.Registerer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
