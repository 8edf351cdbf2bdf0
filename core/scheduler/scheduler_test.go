package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EchoCog/echollama/core/logging"
)

type discard struct{}

func (discard) Debug(string, map[string]interface{}) {}
func (discard) Info(string, map[string]interface{})  {}
func (discard) Warn(string, map[string]interface{})  {}
func (discard) Error(string, map[string]interface{}) {}
func (d discard) With(map[string]interface{}) logging.Logger { return d }

func newNoopLogger() logging.Logger { return discard{} }

func TestScheduleEvery_RunsJobRepeatedly(t *testing.T) {
	sched := New(newNoopLogger())
	var calls int32

	err := sched.ScheduleEvery("tick", 20*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	sched.Start(ctx)
	defer sched.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 2
	}, time.Second, 10*time.Millisecond)

	cancel()
}

func TestScheduleEvery_JobErrorDoesNotStopScheduler(t *testing.T) {
	sched := New(newNoopLogger())
	var calls int32

	err := sched.ScheduleEvery("flaky", 15*time.Millisecond, func(ctx context.Context) error {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return assert.AnError
		}
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	sched.Start(ctx)
	defer sched.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 2
	}, time.Second, 10*time.Millisecond)

	cancel()
}
