package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/analytics/internal/domain"
	"github.com/aristath/analytics/internal/modules/historical"
)

type countingJob struct {
	JobBase
	runs int
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run() error {
	j.runs++
	return j.err
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	job := &countingJob{}
	require.NoError(t, s.AddJob("0 0 6 * * *", job))
	assert.Error(t, s.AddJob("not a schedule", &countingJob{}))

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, "counting", status[0].Name)
	assert.Equal(t, "0 0 6 * * *", status[0].Schedule)
	assert.Zero(t, status[0].Runs)
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{err: errors.New("boom")}
	require.NoError(t, s.AddJob("@every 1h", job))

	assert.EqualError(t, s.RunNow(job), "boom")
	assert.Equal(t, 1, job.runs)

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, 1, status[0].Runs)
	assert.Equal(t, "boom", status[0].LastErr)
	assert.False(t, status[0].LastRun.IsZero())
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@every 1h", &countingJob{}))
	s.Start()
	s.Stop()
}

type stubRefresher struct {
	symbols  []string
	lookback time.Duration
	report   *historical.RefreshReport
	err      error
}

func (s *stubRefresher) RefreshSymbols(_ context.Context, symbols []string, _ domain.Interval, lookback time.Duration) (*historical.RefreshReport, error) {
	s.symbols = symbols
	s.lookback = lookback
	return s.report, s.err
}

func TestRefreshHistoryJob(t *testing.T) {
	tests := []struct {
		name    string
		symbols []string
		report  *historical.RefreshReport
		err     error
		wantErr bool
	}{
		{"empty watchlist", nil, nil, nil, false},
		{"all refreshed", []string{"AAA"}, &historical.RefreshReport{Refreshed: []string{"AAA"}}, nil, false},
		{"partial failure", []string{"AAA", "BBB"}, &historical.RefreshReport{
			Refreshed: []string{"AAA"},
			Failed:    map[string]string{"BBB": "not found"},
		}, nil, false},
		{"all failed", []string{"AAA"}, &historical.RefreshReport{Failed: map[string]string{"AAA": "down"}}, nil, true},
		{"cancelled", []string{"AAA"}, nil, context.DeadlineExceeded, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refresher := &stubRefresher{report: tt.report, err: tt.err}
			job := NewRefreshHistoryJob(refresher, tt.symbols, domain.Interval1d, 48*time.Hour, time.Minute)
			job.SetLogger(zerolog.Nop())

			err := job.Run()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if len(tt.symbols) > 0 {
				assert.Equal(t, tt.symbols, refresher.symbols)
				assert.Equal(t, 48*time.Hour, refresher.lookback)
			}
		})
	}
}
