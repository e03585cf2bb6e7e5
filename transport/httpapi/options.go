package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Option defines a functional option for configuring a Server.
type Option func(*Server) error

// WithLogger sets the logger for request logging and for failures that are hidden from clients.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}

		s.logger = logger

		return nil
	}
}

// WithMetricsHandler mounts handler on GET /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *Server) error {
		s.metricsHandler = handler
		return nil
	}
}

// WithCORSOrigin sets the value of the Access-Control-Allow-Origin header.
// An empty origin disables the CORS headers.
func WithCORSOrigin(origin string) Option {
	return func(s *Server) error {
		s.corsOrigin = origin
		return nil
	}
}

// WithRequestTimeout bounds the time a single request may spend in the lending protocol.
// A request that runs out of time is rolled back.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		if timeout <= 0 {
			return errors.New("request timeout must be positive")
		}

		s.requestTimeout = timeout

		return nil
	}
}
