// Package loadgen drives concurrent issue and return traffic against a lending engine
// at a fixed rate and checks the inventory invariant afterward.
package loadgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	defaultRate           = 30
	defaultItems          = 100
	defaultCopiesPerItem  = 3
	defaultBorrowers      = 50
	defaultIssueWeight    = 60
	defaultReportInterval = 10 * time.Second
	defaultLoanPeriod     = 14 * 24 * time.Hour
	operationTimeout      = 5 * time.Second
	maxRate               = 10_000

	itemCodePrefix = "LOADGEN-"
)

var ErrInvalidConfig = errors.New("invalid load generator config")

// Lender is the part of the engine the generator drives.
type Lender interface {
	AddItem(ctx context.Context, newItem lending.NewItem) (lending.Item, error)
	Issue(ctx context.Context, req lending.IssueRequest) (lending.Loan, error)
	Return(ctx context.Context, req lending.ReturnRequest) (lending.Loan, error)
	ListItems(ctx context.Context) ([]lending.Item, error)
	Summary(ctx context.Context) (lending.Summary, error)
}

// Config controls the shape of the generated traffic.
type Config struct {
	Rate           int // operations per second
	Items          int
	CopiesPerItem  int
	Borrowers      int
	IssueWeight    int // percentage of operations that are issues, the rest are returns
	ReportInterval time.Duration
}

// DefaultConfig returns a moderate mixed workload.
func DefaultConfig() Config {
	return Config{
		Rate:           defaultRate,
		Items:          defaultItems,
		CopiesPerItem:  defaultCopiesPerItem,
		Borrowers:      defaultBorrowers,
		IssueWeight:    defaultIssueWeight,
		ReportInterval: defaultReportInterval,
	}
}

func (c Config) validate() error {
	switch {
	case c.Rate < 1 || c.Rate > maxRate:
		return errors.Join(ErrInvalidConfig, fmt.Errorf("rate must be within [1, %d]", maxRate))
	case c.Items < 1:
		return errors.Join(ErrInvalidConfig, errors.New("items must be at least 1"))
	case c.CopiesPerItem < 1:
		return errors.Join(ErrInvalidConfig, errors.New("copies per item must be at least 1"))
	case c.Borrowers < 1:
		return errors.Join(ErrInvalidConfig, errors.New("borrowers must be at least 1"))
	case c.IssueWeight < 0 || c.IssueWeight > 100:
		return errors.Join(ErrInvalidConfig, errors.New("issue weight must be within [0, 100]"))
	case c.ReportInterval <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("report interval must be positive"))
	default:
		return nil
	}
}

// Stats counts the outcomes of all operations of one run.
// Rejected operations hit a lending rule (unavailable, no active loan, ...), which is expected
// under random traffic. Failed operations hit the store.
type Stats struct {
	Requests  int64
	Succeeded int64
	Rejected  int64
	Canceled  int64
	Failed    int64
	Elapsed   time.Duration
}

// Generator produces load against a Lender.
type Generator struct {
	lender Lender
	config Config
	logger *slog.Logger
	now    func() time.Time

	wg        sync.WaitGroup
	mu        sync.Mutex
	stats     Stats
	startTime time.Time
}

// New creates a Generator. A nil logger discards all output.
func New(lender Lender, config Config, logger *slog.Logger) (*Generator, error) {
	if lender == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("lender must not be nil"))
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Generator{
		lender: lender,
		config: config,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Seed adds the generator's items to the catalog. Items left over from an earlier run are kept.
func (g *Generator) Seed(ctx context.Context) error {
	for i := range g.config.Items {
		_, err := g.lender.AddItem(ctx, lending.NewItem{
			Code:        itemCode(i),
			Title:       fmt.Sprintf("Load Test Book %04d", i),
			Author:      "Load Generator",
			TotalCopies: g.config.CopiesPerItem,
		})
		if err != nil && !errors.Is(err, lending.ErrDuplicateItemCode) {
			return err
		}
	}

	return nil
}

// Run starts one operation per tick until ctx is done, waits for the operations in flight
// and returns the final statistics.
func (g *Generator) Run(ctx context.Context) Stats {
	g.mu.Lock()
	g.startTime = time.Now()
	g.stats = Stats{}
	g.mu.Unlock()

	interval := time.Second / time.Duration(g.config.Rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	reportTicker := time.NewTicker(g.config.ReportInterval)
	defer reportTicker.Stop()

	g.logger.Info("load generator started",
		slog.Int("rate", g.config.Rate),
		slog.Int("items", g.config.Items),
		slog.Int("borrowers", g.config.Borrowers),
		slog.Int("issue_weight", g.config.IssueWeight))

	for {
		select {
		case <-ctx.Done():
			g.wg.Wait()
			stats := g.snapshot()
			g.logStats("load generator stopped", stats)

			return stats

		case <-reportTicker.C:
			g.logStats("load generator progress", g.snapshot())

		case <-ticker.C:
			g.wg.Add(1)
			go g.executeScenario(ctx)
		}
	}
}

// Verify checks that the copies on loan match the open loans and that no item is out of bounds.
func (g *Generator) Verify(ctx context.Context) error {
	summary, err := g.lender.Summary(ctx)
	if err != nil {
		return err
	}

	if summary.TotalCopies-summary.AvailableCopies != summary.OnLoan {
		return &lending.ConsistencyError{
			ItemCode: "*",
			Detail: fmt.Sprintf("%d total, %d available but %d open loans",
				summary.TotalCopies, summary.AvailableCopies, summary.OnLoan),
		}
	}

	items, err := g.lender.ListItems(ctx)
	if err != nil {
		return err
	}

	for _, item := range items {
		if item.AvailableCopies < 0 || item.AvailableCopies > item.TotalCopies {
			return &lending.ConsistencyError{
				ItemCode: item.Code,
				Detail:   fmt.Sprintf("%d of %d copies available", item.AvailableCopies, item.TotalCopies),
			}
		}
	}

	return nil
}

func (g *Generator) executeScenario(ctx context.Context) {
	defer g.wg.Done()

	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	code := itemCode(rand.IntN(g.config.Items))    //nolint:gosec // load shape only
	borrower := rand.IntN(g.config.Borrowers)      //nolint:gosec // load shape only
	issue := rand.IntN(100) < g.config.IssueWeight //nolint:gosec // load shape only
	name, contactID := borrowerName(borrower), contactOf(borrower)

	var err error
	if issue {
		_, err = g.lender.Issue(opCtx, lending.IssueRequest{
			ItemCode:     code,
			BorrowerName: name,
			ContactID:    contactID,
			DueDate:      lending.DateOf(g.now().Add(defaultLoanPeriod)).String(),
		})
	} else {
		_, err = g.lender.Return(opCtx, lending.ReturnRequest{
			ItemCode:     code,
			BorrowerName: name,
			ContactID:    contactID,
		})
	}

	g.record(err)
}

func (g *Generator) record(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stats.Requests++

	switch {
	case err == nil:
		g.stats.Succeeded++
	case lending.IsBusinessFailure(err):
		g.stats.Rejected++
	case lending.KindOf(err) == lending.KindCanceled:
		g.stats.Canceled++
	default:
		g.stats.Failed++
		g.logger.Error("load generator operation failed", slog.String("error", err.Error()))
	}
}

func (g *Generator) snapshot() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	stats := g.stats
	stats.Elapsed = time.Since(g.startTime)

	return stats
}

func (g *Generator) logStats(msg string, stats Stats) {
	var rps float64
	if stats.Elapsed > 0 {
		rps = float64(stats.Requests) / stats.Elapsed.Seconds()
	}

	g.logger.Info(msg,
		slog.Int64("requests", stats.Requests),
		slog.Int64("succeeded", stats.Succeeded),
		slog.Int64("rejected", stats.Rejected),
		slog.Int64("canceled", stats.Canceled),
		slog.Int64("failed", stats.Failed),
		slog.Float64("requests_per_second", rps),
		slog.Int("goroutines", runtime.NumGoroutine()))
}

func itemCode(i int) string {
	return fmt.Sprintf("%s%04d", itemCodePrefix, i)
}

func borrowerName(i int) string {
	return fmt.Sprintf("Reader %03d", i)
}

func contactOf(i int) string {
	return fmt.Sprintf("loadgen-%03d", i)
}
