package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOnce(t *testing.T) {

	t.Run("empty store yields all zeros and no error", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()
		reporter := NewStatsReporter(f.service, time.Minute, nil)

		report, err := reporter.runOnce(f.ctx)

		require.Nil(t, err)
		assert.Zero(t, report.Total)
		assert.Zero(t, report.Active)
		assert.Zero(t, report.Inactive)
		assert.Zero(t, report.Recent)
		assert.Equal(t, 200, report.StatusCode)
		assert.NotEqual(t, report.RunID.String(), "00000000-0000-0000-0000-000000000000")
	})

	t.Run("samples totals, active, inactive and recent counts", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()

		old := activeMessage("old", "admin")
		old.CreatedAt = daysAgo(10)
		inactive := activeMessage("inactive", "admin")
		inactive.Active = false
		seedMessages(f, old, inactive,
			activeMessage("recent one", "admin"),
			activeMessage("recent two", "system"),
		)

		reporter := NewStatsReporter(f.service, time.Minute, nil)
		report, err := reporter.runOnce(f.ctx)

		require.Nil(t, err)
		assert.Equal(t, int64(4), report.Total)
		assert.Equal(t, int64(3), report.Active)
		assert.Equal(t, int64(1), report.Inactive)
		assert.Equal(t, int64(2), report.Recent)
	})

	t.Run("schedules the next run one interval after completion", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()
		interval := time.Minute
		reporter := NewStatsReporter(f.service, interval, nil)

		report, err := reporter.runOnce(f.ctx)

		require.Nil(t, err)
		assert.False(t, report.NextRun.Before(report.Timestamp.Add(interval)))
	})
}

func TestReporterSwallowsRunErrors(t *testing.T) {
	source := &stubStatsSource{err: errors.New("store unavailable")}
	reporter := NewStatsReporter(source, time.Minute, nil)

	_, err := reporter.runOnce(context.Background())
	require.NotNil(t, err)

	// execute must not panic or propagate; the schedule keeps going
	reporter.execute(context.Background())
}

func TestReporterStartStop(t *testing.T) {

	t.Run("start twice fails", func(t *testing.T) {
		reporter := NewStatsReporter(&stubStatsSource{}, time.Minute, nil)

		require.Nil(t, reporter.Start(context.Background()))
		defer reporter.Stop()

		assert.ErrorIs(t, reporter.Start(context.Background()), ErrReporterRunning)
		assert.True(t, reporter.IsRunning())
	})

	t.Run("stop when idle fails", func(t *testing.T) {
		reporter := NewStatsReporter(&stubStatsSource{}, time.Minute, nil)

		assert.ErrorIs(t, reporter.Stop(), ErrReporterNotRunning)
		assert.False(t, reporter.IsRunning())
	})

	t.Run("stop after start succeeds", func(t *testing.T) {
		reporter := NewStatsReporter(&stubStatsSource{}, time.Minute, nil)

		require.Nil(t, reporter.Start(context.Background()))
		require.Nil(t, reporter.Stop())
		assert.False(t, reporter.IsRunning())
	})
}

func TestReporterFixedDelay(t *testing.T) {
	interval := 10 * time.Millisecond
	runDuration := 25 * time.Millisecond
	source := &stubStatsSource{delay: runDuration}
	reporter := NewStatsReporter(source, interval, nil)

	require.Nil(t, reporter.Start(context.Background()))
	time.Sleep(150 * time.Millisecond)
	require.Nil(t, reporter.Stop())

	starts := source.startTimes()
	require.GreaterOrEqual(t, len(starts), 2)

	// runs never overlap
	assert.Equal(t, 1, source.maxConcurrent())

	// the gap between run starts covers the previous run plus the full
	// interval, which distinguishes fixed-delay from fixed-rate ticking
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		assert.GreaterOrEqual(t, gap, runDuration+interval-time.Millisecond)
	}
}

// stubStatsSource is a StatsSource with controllable latency and failures.
type stubStatsSource struct {
	delay time.Duration
	err   error

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	starts      []time.Time
}

func (s *stubStatsSource) GetAll(ctx context.Context) ([]Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.begin()
	defer s.end()
	time.Sleep(s.delay)
	return nil, nil
}

func (s *stubStatsSource) GetActiveMessageCount(ctx context.Context) (int64, error) {
	return 0, s.err
}

func (s *stubStatsSource) GetRecentMessages(ctx context.Context, daysAgo int) ([]Message, error) {
	return nil, s.err
}

func (s *stubStatsSource) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts = append(s.starts, time.Now())
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
}

func (s *stubStatsSource) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
}

func (s *stubStatsSource) maxConcurrent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}

func (s *stubStatsSource) startTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.starts...)
}
