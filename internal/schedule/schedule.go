// Package schedule runs the periodic maintenance jobs of the server:
// geocache pruning and persistence, and subscription refreshes.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "milify/internal/log"
)

// JobFunc is one unit of scheduled work.
type JobFunc func(ctx context.Context) error

type job struct {
	name string
	spec string
	run  JobFunc
}

// Scheduler wraps a cron.Cron whose jobs share one cancellable context.
// Overlapping runs of the same job are skipped and panics are recovered.
type Scheduler struct {
	cron *cron.Cron

	mu     sync.Mutex
	jobs   []job
	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a scheduler evaluating specs in loc (standard 5-field cron).
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers fn under name with a cron spec such as "*/30 * * * *".
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j := job{name: name, spec: spec, run: fn}
	if _, err := s.cron.AddFunc(spec, func() { s.execute(j) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.jobs = append(s.jobs, j)
	appLog.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

// RunAll runs every registered job once, in registration order, on the
// calling goroutine. Used to warm state at startup.
func (s *Scheduler) RunAll() {
	s.mu.Lock()
	jobs := append([]job(nil), s.jobs...)
	s.mu.Unlock()

	for _, j := range jobs {
		s.execute(j)
	}
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels the job context and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	appLog.Info("scheduler stopped")
}

func (s *Scheduler) execute(j job) {
	start := time.Now()
	if err := j.run(s.ctx); err != nil {
		appLog.Error("job failed", err, "job", j.name, "took", time.Since(start).String())
		return
	}
	appLog.Debug("job done", "job", j.name, "took", time.Since(start).String())
}

// cronLogger routes cron's own messages into the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}
