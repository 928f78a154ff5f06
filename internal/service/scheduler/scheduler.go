// Package scheduler runs the periodic housekeeping passes: expiring stale
// reservations and flagging points whose session is about to finish.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/observability/telemetry"
	"github.com/seu-repo/evcharge/pkg/config"
)

const (
	TaskExpireReservations = "expireReservations"
	TaskDetectAlmostDone   = "detectAlmostDone"

	taskActive   = "active"
	taskInactive = "inactive"
)

type ReservationExpirer interface {
	ExpireOldReservations(ctx context.Context) (int64, error)
}

type AlmostDoneDetector interface {
	DetectAlmostDoneSessions(ctx context.Context) (int64, error)
}

// Status reports whether the loops are running.
type Status struct {
	IsRunning bool              `json:"isRunning"`
	Tasks     map[string]string `json:"tasks"`
}

type task struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) (int64, error)
}

// Scheduler owns one ticker goroutine per task. A pass that fails or panics
// is logged and the next tick runs as usual.
type Scheduler struct {
	tasks   []task
	timeout time.Duration
	log     *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(reservations ReservationExpirer, sessions AlmostDoneDetector, cfg config.SchedulerConfig, log *zap.Logger) *Scheduler {
	expireEvery := cfg.ExpireReservationsEvery
	if expireEvery <= 0 {
		expireEvery = 30 * time.Second
	}
	detectEvery := cfg.DetectAlmostDoneEvery
	if detectEvery <= 0 {
		detectEvery = 60 * time.Second
	}
	timeout := cfg.TaskTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Scheduler{
		tasks: []task{
			{name: TaskExpireReservations, interval: expireEvery, run: reservations.ExpireOldReservations},
			{name: TaskDetectAlmostDone, interval: detectEvery, run: sessions.DetectAlmostDoneSessions},
		},
		timeout: timeout,
		log:     log,
	}
}

// Start launches the tickers and runs one pass of every task before
// returning. Calling it on a running scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
	s.mu.Unlock()

	s.log.Info("Charging scheduler started",
		zap.Duration("expire_every", s.tasks[0].interval),
		zap.Duration("detect_every", s.tasks[1].interval),
	)

	for _, t := range s.tasks {
		s.runOnce(t)
	}
}

// Stop cancels the tickers and waits for in-flight passes to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.running = false
	s.cancel = nil
	s.log.Info("Charging scheduler stopped")
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := taskInactive
	if s.running {
		state = taskActive
	}
	st := Status{IsRunning: s.running, Tasks: make(map[string]string, len(s.tasks))}
	for _, t := range s.tasks {
		st.Tasks[t.name] = state
	}
	return st
}

func (s *Scheduler) loop(ctx context.Context, t task) {
	defer s.wg.Done()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(t)
		}
	}
}

// runOnce executes one pass with its own deadline so that Stop lets it finish.
func (s *Scheduler) runOnce(t task) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.safeRun(ctx, t)
	telemetry.SchedulerTaskDuration.WithLabelValues(t.name).Observe(time.Since(start).Seconds())

	if err != nil {
		telemetry.SchedulerTaskErrorsTotal.WithLabelValues(t.name).Inc()
		s.log.Error("Scheduler task failed", zap.String("task", t.name), zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("Scheduler task done", zap.String("task", t.name), zap.Int64("affected", n))
	}
}

func (s *Scheduler) safeRun(ctx context.Context, t task) (n int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", t.name, r)
		}
	}()
	return t.run(ctx)
}
