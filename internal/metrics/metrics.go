package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Session metrics
	SessionsOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voicetime_sessions_opened_total",
			Help: "Total voice sessions opened",
		},
	)

	SessionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicetime_sessions_closed_total",
			Help: "Total voice sessions closed, by whether time was credited",
		},
		[]string{"credited"},
	)

	OrphanedSessions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voicetime_orphaned_sessions_total",
			Help: "Open sessions discarded without credit because the user joined again",
		},
	)

	CommittedSeconds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voicetime_committed_seconds_total",
			Help: "Total voice seconds committed to the totals",
		},
	)

	// Admin metrics
	Adjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicetime_adjustments_total",
			Help: "Admin time corrections, by operation and result",
		},
		[]string{"op", "result"},
	)

	// Command metrics
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicetime_commands_total",
			Help: "Chat commands handled",
		},
		[]string{"command"},
	)

	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicetime_store_errors_total",
			Help: "Storage operation failures",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsOpened,
		SessionsClosed,
		OrphanedSessions,
		CommittedSeconds,
		Adjustments,
		CommandsTotal,
		StoreErrors,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server *http.Server
	logger zerolog.Logger
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Handler returns the HTTP handler serving /metrics and /health
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the metrics server
func (s *Server) Start() {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
