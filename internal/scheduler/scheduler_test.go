package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bebeku/farm/internal/domain/models"
)

type stubReporter struct {
	calls int
	err   error
}

func (s *stubReporter) Run(context.Context) (models.DailyReport, error) {
	s.calls++
	return models.DailyReport{Date: "2026-06-15"}, s.err
}

type stubSweeper struct{ calls int }

func (s *stubSweeper) Sweep() int {
	s.calls++
	return 2
}

func TestStartRegistersJobsInLocation(t *testing.T) {
	wib, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	s := NewScheduler("0 20 * * *", wib, &stubReporter{}, &stubSweeper{}, nil)
	require.NoError(t, s.Start())
	defer s.Stop()

	entries := s.Entries()
	require.Len(t, entries, 2)
	var daily time.Time
	for _, e := range entries {
		if e.Next.In(wib).Hour() == 20 && e.Next.In(wib).Minute() == 0 {
			daily = e.Next
		}
	}
	require.False(t, daily.IsZero())
	assert.Equal(t, wib, daily.Location())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler("every evening", time.UTC, &stubReporter{}, nil, nil)
	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every evening")
}

func TestSendDailyReportLogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reporter := &stubReporter{err: errors.New("sheet offline")}
	s := NewScheduler("0 20 * * *", time.UTC, reporter, nil, zap.New(core))

	s.sendDailyReport()

	assert.Equal(t, 1, reporter.calls)
	require.Equal(t, 1, logs.FilterMessage("daily report incomplete").Len())
	assert.Equal(t, 0, logs.FilterMessage("daily report delivered").Len())
}

func TestSweepSessions(t *testing.T) {
	sweeper := &stubSweeper{}
	s := NewScheduler("0 20 * * *", time.UTC, &stubReporter{}, sweeper, nil)
	s.sweepSessions()
	assert.Equal(t, 1, sweeper.calls)
}
