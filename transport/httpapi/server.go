package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	defaultRequestTimeout = 10 * time.Second
	readHeaderTimeout     = 5 * time.Second
	maxRequestBodyBytes   = 1 << 20
)

// Lending is the part of sqlengine.Engine the HTTP API depends on.
type Lending interface {
	AddItem(ctx context.Context, newItem lending.NewItem) (lending.Item, error)
	ItemByCode(ctx context.Context, code string) (lending.Item, error)
	ListItems(ctx context.Context) ([]lending.Item, error)
	SearchItems(ctx context.Context, term string) ([]lending.Item, error)
	Summary(ctx context.Context) (lending.Summary, error)
	CurrentLoans(ctx context.Context) ([]lending.CurrentLoan, error)
	Issue(ctx context.Context, req lending.IssueRequest) (lending.Loan, error)
	Return(ctx context.Context, req lending.ReturnRequest) (lending.Loan, error)
	Ping(ctx context.Context) error
}

// Server serves the lending JSON API.
type Server struct {
	lending        Lending
	logger         *slog.Logger
	metricsHandler http.Handler
	corsOrigin     string
	requestTimeout time.Duration
}

// NewServer creates a Server on top of l.
func NewServer(l Lending, options ...Option) (*Server, error) {
	if l == nil {
		return nil, errors.New("lending must not be nil")
	}

	s := &Server{
		lending:        l,
		logger:         slog.New(slog.DiscardHandler),
		requestTimeout: defaultRequestTimeout,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Handler returns the routed and wrapped http.Handler of the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/books", s.handleAddItem)
	mux.HandleFunc("GET /api/books", s.handleListItems)
	mux.HandleFunc("GET /api/books/search", s.handleSearchItems)
	mux.HandleFunc("GET /api/books/summary", s.handleSummary)
	mux.HandleFunc("GET /api/books/{code}", s.handleItemByCode)
	mux.HandleFunc("POST /api/issues/issue", s.handleIssue)
	mux.HandleFunc("POST /api/issues/return", s.handleReturn)
	mux.HandleFunc("GET /api/issues/current", s.handleCurrentLoans)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}

	return s.withRequestLogging(s.withCORS(s.withTimeout(mux)))
}

// Run listens on addr until ctx is done, then shuts down gracefully and waits up to
// shutdownTimeout for in-flight requests.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		s.logger.Info("http server listening", slog.String("addr", addr))
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err

	case <-ctx.Done():
		s.logger.Info("http server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}

		if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	}
}
