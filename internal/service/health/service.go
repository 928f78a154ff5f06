package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Checker defines a health check function
type Checker func(ctx context.Context) CheckResult

// Pinger is any dependency that can report whether it is reachable.
type Pinger interface {
	Ping() error
}

// ContextPinger is a dependency whose ping honours a context, like *sql.DB.
type ContextPinger interface {
	PingContext(ctx context.Context) error
}

// Service handles health checks
type Service struct {
	startTime time.Time
	version   string
	timeout   time.Duration
	checkers  map[string]Checker
	log       *zap.Logger
	mu        sync.RWMutex
}

// Config holds health service configuration. Nil dependencies are not checked.
type Config struct {
	Version string
	DB      ContextPinger
	Cache   Pinger
	Queue   Pinger
	Timeout time.Duration
}

// NewService creates a new health service
func NewService(config *Config, log *zap.Logger) *Service {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s := &Service{
		startTime: time.Now(),
		version:   config.Version,
		timeout:   timeout,
		checkers:  make(map[string]Checker),
		log:       log,
	}

	if config.DB != nil {
		s.RegisterChecker("database", ping("database", StatusUnhealthy, config.DB.PingContext, log))
	}
	// the cache and broker are optional; losing them degrades the service
	if config.Cache != nil {
		s.RegisterChecker("cache", ping("cache", StatusDegraded, ignoreCtx(config.Cache), log))
	}
	if config.Queue != nil {
		s.RegisterChecker("queue", ping("queue", StatusDegraded, ignoreCtx(config.Queue), log))
	}

	return s
}

// RegisterChecker registers a custom health checker
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
	s.log.Info("Registered health checker", zap.String("name", name))
}

// Health performs a basic liveness check
func (s *Service) Health(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now(),
	}
}

// Ready runs every checker concurrently. Only an unhealthy check makes the
// service not ready.
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for k, v := range s.checkers {
		checkers[k] = v
	}
	s.mu.RUnlock()

	results := make(map[string]CheckResult)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			result := checker(checkCtx)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}

	wg.Wait()

	overallStatus := StatusHealthy
	allReady := true

	for _, result := range results {
		if result.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			allReady = false
		} else if result.Status == StatusDegraded && overallStatus != StatusUnhealthy {
			overallStatus = StatusDegraded
		}
	}

	return &ReadyResponse{
		Ready:     allReady,
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

func ignoreCtx(p Pinger) func(context.Context) error {
	return func(context.Context) error { return p.Ping() }
}

// ping builds a checker that reports failStatus when fn errors.
func ping(name string, failStatus Status, fn func(context.Context) error, log *zap.Logger) Checker {
	return func(ctx context.Context) CheckResult {
		start := time.Now()
		result := CheckResult{
			Name:      name,
			Timestamp: start,
		}

		err := fn(ctx)
		result.Duration = time.Since(start)

		if err != nil {
			result.Status = failStatus
			result.Message = fmt.Sprintf("ping failed: %v", err)
			log.Warn("Health check failed", zap.String("check", name), zap.Error(err))
		} else {
			result.Status = StatusHealthy
			result.Message = "connection ok"
		}

		return result
	}
}
