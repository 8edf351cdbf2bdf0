// Package scheduler runs periodic in-process maintenance jobs — currently
// only the predictive analyzer's hit-rate reconciliation (§4.E) — on top of
// reugn/go-quartz, the timer library carried in the dependency chain
// alongside the rest of the orchestration core's stack but never wired to a
// concrete job until now.
package scheduler

import (
	"context"
	"time"

	"github.com/reugn/go-quartz/quartz"

	"github.com/EchoCog/echollama/core/logging"
)

// Scheduler wraps a quartz.Scheduler with the narrow surface the
// composition root needs: register one or more interval jobs, start, stop.
type Scheduler struct {
	sched  quartz.Scheduler
	logger logging.Logger
}

// New builds a Scheduler. It does not start the underlying quartz
// scheduler until Start is called.
func New(logger logging.Logger) *Scheduler {
	return &Scheduler{sched: quartz.NewStdScheduler(), logger: logger}
}

// Job is the narrow unit of work an interval schedules. Error is logged,
// never propagated: a failed reconciliation pass must not take down the
// scheduler loop (§5: the cooperative event loop tolerates background
// task failures without stopping).
type Job func(ctx context.Context) error

// quartzJob adapts a Job closure to quartz.Job.
type quartzJob struct {
	name   string
	fn     Job
	logger logging.Logger
}

func (j *quartzJob) Execute(ctx context.Context) error {
	if err := j.fn(ctx); err != nil {
		j.logger.Warn("scheduled job failed", map[string]interface{}{"job": j.name, "error": err.Error()})
	}
	return nil
}
func (j *quartzJob) Description() string { return j.name }

// ScheduleEvery registers fn to run on a fixed interval starting once the
// scheduler is started. name identifies the job in logs.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, fn Job) error {
	trigger := quartz.NewSimpleTrigger(interval)
	detail := quartz.NewJobDetail(&quartzJob{name: name, fn: fn, logger: s.logger}, quartz.NewJobKey(name))
	return s.sched.ScheduleJob(detail, trigger)
}

// Start begins running scheduled jobs. ctx cancellation stops the
// scheduler's own background goroutine; it does not cancel jobs already
// in flight.
func (s *Scheduler) Start(ctx context.Context) {
	s.sched.Start(ctx)
}

// Stop halts the scheduler, waiting for any in-flight job to finish.
func (s *Scheduler) Stop() {
	s.sched.Stop()
}
