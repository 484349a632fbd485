package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultStatsInterval is the delay between the end of one stats run
	// and the start of the next.
	DefaultStatsInterval = time.Minute

	// recentWindowDays is the window the reporter samples for recent
	// message counts.
	recentWindowDays = 7

	// reportStatusOK is logged at the end of every successful run. It
	// carries no transport meaning; it is kept for compatibility with the
	// report format consumers already parse.
	reportStatusOK = 200
)

var (
	// ErrReporterRunning is returned when Start is called on a running reporter.
	ErrReporterRunning = errors.New("stats reporter already running")
	// ErrReporterNotRunning is returned when Stop is called on an idle reporter.
	ErrReporterNotRunning = errors.New("stats reporter not running")
)

// StatsSource is the read-only view of the message service that the
// reporter samples. It never exposes mutating operations.
type StatsSource interface {
	GetAll(ctx context.Context) ([]Message, error)
	GetActiveMessageCount(ctx context.Context) (int64, error)
	GetRecentMessages(ctx context.Context, daysAgo int) ([]Message, error)
}

// Report captures the aggregate counts sampled by a single reporter run.
type Report struct {
	RunID      uuid.UUID `json:"run_id"`
	Timestamp  time.Time `json:"timestamp"`
	Total      int64     `json:"total"`
	Active     int64     `json:"active"`
	Inactive   int64     `json:"inactive"`
	Recent     int64     `json:"recent"`
	NextRun    time.Time `json:"next_run"`
	StatusCode int       `json:"status_code"`
}

// StatsReporter periodically samples aggregate message statistics and
// emits a report. Scheduling is fixed-delay: the next run starts one
// interval after the previous run completes, so runs never overlap. A
// failed run is logged and the schedule continues.
type StatsReporter struct {
	source   StatsSource
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

func NewStatsReporter(source StatsSource, interval time.Duration, logger *slog.Logger) *StatsReporter {
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsReporter{source: source, interval: interval, logger: logger}
}

// Start launches the background reporting loop. The first run happens
// immediately; subsequent runs follow fixed-delay scheduling.
func (r *StatsReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrReporterRunning
	}

	if ctx == nil {
		ctx = context.Background()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	go r.run(loopCtx)
	r.logger.Info("stats reporter started", slog.Duration("interval", r.interval))

	return nil
}

// Stop cancels the reporting loop. A run already in flight is not
// interrupted mid-query, but no further runs are scheduled.
func (r *StatsReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return ErrReporterNotRunning
	}

	r.cancel()
	r.running = false
	r.logger.Info("stats reporter stopped")
	return nil
}

// IsRunning reports whether the background loop is active.
func (r *StatsReporter) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *StatsReporter) run(ctx context.Context) {
	// A timer re-armed after each run gives fixed-delay scheduling: a run
	// that takes 10s with a 60s interval starts the next run 70s after the
	// previous one started. A ticker would drift toward fixed-rate instead.
	r.execute(ctx)

	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			r.execute(ctx)
			timer.Reset(r.interval)
		}
	}
}

func (r *StatsReporter) execute(ctx context.Context) {
	report, err := r.runOnce(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// Non-fatal to the schedule: log and wait for the next tick.
		r.logger.Error("stats run failed", slog.String("error", err.Error()))
		return
	}

	r.logger.Info("message statistics",
		slog.String("run_id", report.RunID.String()),
		slog.Time("timestamp", report.Timestamp),
		slog.Int64("total", report.Total),
		slog.Int64("active", report.Active),
		slog.Int64("inactive", report.Inactive),
		slog.Int64("recent_7d", report.Recent),
		slog.Time("next_run", report.NextRun),
		slog.Int("status", report.StatusCode),
	)
}

// runOnce samples the source and assembles a single report.
func (r *StatsReporter) runOnce(ctx context.Context) (Report, error) {
	now := time.Now().UTC()

	all, err := r.source.GetAll(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("GetAll: %w", err)
	}

	active, err := r.source.GetActiveMessageCount(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("GetActiveMessageCount: %w", err)
	}

	recent, err := r.source.GetRecentMessages(ctx, recentWindowDays)
	if err != nil {
		return Report{}, fmt.Errorf("GetRecentMessages: %w", err)
	}

	total := int64(len(all))
	return Report{
		RunID:      uuid.New(),
		Timestamp:  now,
		Total:      total,
		Active:     active,
		Inactive:   total - active,
		Recent:     int64(len(recent)),
		NextRun:    time.Now().UTC().Add(r.interval),
		StatusCode: reportStatusOK,
	}, nil
}
