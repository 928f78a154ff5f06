package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/mocks"
	"github.com/seu-repo/evcharge/pkg/config"
)

func fastConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		Enabled:                 true,
		ExpireReservationsEvery: 10 * time.Millisecond,
		DetectAlmostDoneEvery:   15 * time.Millisecond,
		TaskTimeout:             time.Second,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStart_RunsImmediatePass(t *testing.T) {
	var expired, detected int32
	resv := &mocks.MockReservationService{
		ExpireOldReservationsFunc: func(ctx context.Context) (int64, error) {
			atomic.AddInt32(&expired, 1)
			return 0, nil
		},
	}
	sess := &mocks.MockSessionService{
		DetectAlmostDoneSessionsFunc: func(ctx context.Context) (int64, error) {
			atomic.AddInt32(&detected, 1)
			return 0, nil
		},
	}

	cfg := fastConfig()
	cfg.ExpireReservationsEvery = time.Hour
	cfg.DetectAlmostDoneEvery = time.Hour
	s := New(resv, sess, cfg, zap.NewNop())
	s.Start()
	defer s.Stop()

	e, d := atomic.LoadInt32(&expired), atomic.LoadInt32(&detected)
	if e != 1 || d != 1 {
		t.Errorf("Expected one immediate pass each, got expire=%d detect=%d", e, d)
	}
}

func TestStart_TicksAndIsIdempotent(t *testing.T) {
	var expired int32
	resv := &mocks.MockReservationService{
		ExpireOldReservationsFunc: func(ctx context.Context) (int64, error) {
			atomic.AddInt32(&expired, 1)
			return 1, nil
		},
	}
	s := New(resv, &mocks.MockSessionService{}, fastConfig(), zap.NewNop())

	s.Start()
	s.Start()
	waitFor(t, func() bool { return atomic.LoadInt32(&expired) >= 4 })
	s.Stop()

	after := atomic.LoadInt32(&expired)
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&expired); got != after {
		t.Errorf("Expected no passes after Stop, got %d more", got-after)
	}
}

func TestTaskFailuresDoNotStopLoops(t *testing.T) {
	var expired, detected int32
	resv := &mocks.MockReservationService{
		ExpireOldReservationsFunc: func(ctx context.Context) (int64, error) {
			atomic.AddInt32(&expired, 1)
			panic("boom")
		},
	}
	sess := &mocks.MockSessionService{
		DetectAlmostDoneSessionsFunc: func(ctx context.Context) (int64, error) {
			atomic.AddInt32(&detected, 1)
			return 0, errors.New("db down")
		},
	}

	s := New(resv, sess, fastConfig(), zap.NewNop())
	s.Start()
	waitFor(t, func() bool {
		return atomic.LoadInt32(&expired) >= 3 && atomic.LoadInt32(&detected) >= 3
	})
	s.Stop()
}

func TestStopWaitsForInFlightPass(t *testing.T) {
	var calls, finished int32
	resv := &mocks.MockReservationService{
		ExpireOldReservationsFunc: func(ctx context.Context) (int64, error) {
			// the first call is the immediate pass inside Start
			if atomic.AddInt32(&calls, 1) == 1 {
				return 0, nil
			}
			time.Sleep(50 * time.Millisecond)
			atomic.AddInt32(&finished, 1)
			return 0, nil
		},
	}
	s := New(resv, &mocks.MockSessionService{}, fastConfig(), zap.NewNop())
	s.Start()
	waitFor(t, func() bool { return atomic.LoadInt32(&calls) >= 2 })

	s.Stop()
	if atomic.LoadInt32(&finished) < 1 {
		t.Error("Expected Stop to wait for the in-flight pass")
	}
}

func TestStatus(t *testing.T) {
	s := New(&mocks.MockReservationService{}, &mocks.MockSessionService{}, fastConfig(), zap.NewNop())

	st := s.Status()
	if st.IsRunning || st.Tasks[TaskExpireReservations] != "inactive" || st.Tasks[TaskDetectAlmostDone] != "inactive" {
		t.Errorf("Unexpected status before start %+v", st)
	}

	s.Start()
	st = s.Status()
	if !st.IsRunning || st.Tasks[TaskExpireReservations] != "active" || st.Tasks[TaskDetectAlmostDone] != "active" {
		t.Errorf("Unexpected status while running %+v", st)
	}

	s.Stop()
	s.Stop()
	if s.Status().IsRunning {
		t.Error("Expected scheduler to be stopped")
	}
}
