package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"serp-comparator/pkg/circuit"
	"serp-comparator/pkg/logging"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Name        string                 `json:"name"`
	Status      HealthStatus           `json:"status"`
	Message     string                 `json:"message,omitempty"`
	LastChecked time.Time              `json:"last_checked"`
	Duration    time.Duration          `json:"duration"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// SystemHealth represents the overall system health
type SystemHealth struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
	Summary    HealthSummary              `json:"summary"`
}

// HealthSummary provides aggregated health information
type HealthSummary struct {
	TotalComponents int `json:"total_components"`
	HealthyCount    int `json:"healthy_count"`
	DegradedCount   int `json:"degraded_count"`
	UnhealthyCount  int `json:"unhealthy_count"`
	UnknownCount    int `json:"unknown_count"`
}

// HealthChecker defines the interface for health check functions
type HealthChecker interface {
	Check(ctx context.Context) ComponentHealth
	Name() string
}

// HealthCheckFunc is a function that implements HealthChecker
type HealthCheckFunc struct {
	name string
	fn   func(ctx context.Context) ComponentHealth
}

func (hcf HealthCheckFunc) Check(ctx context.Context) ComponentHealth { return hcf.fn(ctx) }
func (hcf HealthCheckFunc) Name() string                              { return hcf.name }

// NewHealthCheckFunc creates a new HealthCheckFunc
func NewHealthCheckFunc(name string, fn func(ctx context.Context) ComponentHealth) HealthChecker {
	return HealthCheckFunc{name: name, fn: fn}
}

// HealthManager manages health checks for all system components
type HealthManager struct {
	checkers  map[string]HealthChecker
	startTime time.Time
	version   string
	timeout   time.Duration
	logger    *logging.ComponentLogger
	mu        sync.RWMutex
}

// HealthConfig holds configuration for the health manager
type HealthConfig struct {
	Timeout time.Duration `json:"timeout"`
	Version string        `json:"version"`
}

// DefaultHealthConfig returns sensible defaults
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		Timeout: 5 * time.Second,
		Version: "1.0.0",
	}
}

// NewHealthManager creates a new health manager
func NewHealthManager(config HealthConfig, logger *logging.Logger) *HealthManager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &HealthManager{
		checkers:  make(map[string]HealthChecker),
		startTime: time.Now(),
		version:   config.Version,
		timeout:   config.Timeout,
		logger:    logger.WithComponent("health"),
	}
}

// RegisterChecker registers a health checker
func (hm *HealthManager) RegisterChecker(checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checkers[checker.Name()] = checker
	hm.logger.Debug("Registered health checker", logging.String("checker", checker.Name()))
}

// CheckAll runs all health checks concurrently
func (hm *HealthManager) CheckAll(ctx context.Context) SystemHealth {
	start := time.Now()

	hm.mu.RLock()
	checkers := make([]HealthChecker, 0, len(hm.checkers))
	for _, c := range hm.checkers {
		checkers = append(checkers, c)
	}
	hm.mu.RUnlock()

	results := make(chan ComponentHealth, len(checkers))
	var wg sync.WaitGroup
	for _, checker := range checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, hm.timeout)
			defer cancel()
			t0 := time.Now()
			res := c.Check(checkCtx)
			res.Name = c.Name()
			res.LastChecked = t0
			res.Duration = time.Since(t0)
			results <- res
		}(checker)
	}
	wg.Wait()
	close(results)

	components := make(map[string]ComponentHealth, len(checkers))
	for r := range results {
		components[r.Name] = r
	}

	status := determineSystemHealth(components)
	hm.logger.Debug("Completed health check",
		logging.String("status", string(status)),
		logging.Duration("duration", time.Since(start)),
		logging.Int("components", len(components)))

	return SystemHealth{
		Status:     status,
		Timestamp:  time.Now(),
		Version:    hm.version,
		Uptime:     time.Since(hm.startTime).Round(time.Second).String(),
		Components: components,
		Summary:    calculateSummary(components),
	}
}

// Handler serves the system health as JSON. Degraded still answers 200.
func (hm *HealthManager) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := hm.CheckAll(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if h.Status == HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(h)
	})
}

// determineSystemHealth calculates overall system health from components
func determineSystemHealth(components map[string]ComponentHealth) HealthStatus {
	if len(components) == 0 {
		return HealthStatusHealthy
	}
	s := calculateSummary(components)
	switch {
	case s.UnhealthyCount > 0:
		return HealthStatusUnhealthy
	case s.DegradedCount > 0:
		return HealthStatusDegraded
	case s.HealthyCount == s.TotalComponents:
		return HealthStatusHealthy
	default:
		return HealthStatusUnknown
	}
}

func calculateSummary(components map[string]ComponentHealth) HealthSummary {
	summary := HealthSummary{TotalComponents: len(components)}
	for _, c := range components {
		switch c.Status {
		case HealthStatusHealthy:
			summary.HealthyCount++
		case HealthStatusDegraded:
			summary.DegradedCount++
		case HealthStatusUnhealthy:
			summary.UnhealthyCount++
		default:
			summary.UnknownCount++
		}
	}
	return summary
}

// Standard Health Checkers

// CredentialChecker reports degraded when an optional API key is absent.
// The service keeps running without it, with reduced output.
func CredentialChecker(name string, configured bool, missingMsg string) HealthChecker {
	return NewHealthCheckFunc(name, func(context.Context) ComponentHealth {
		if configured {
			return ComponentHealth{Status: HealthStatusHealthy, Message: "configured"}
		}
		return ComponentHealth{Status: HealthStatusDegraded, Message: missingMsg}
	})
}

// BreakerChecker reports the state of a circuit breaker guarding a dependency.
func BreakerChecker(b *circuit.Breaker) HealthChecker {
	return NewHealthCheckFunc("breaker_"+b.Name(), func(context.Context) ComponentHealth {
		st := b.State()
		res := ComponentHealth{Metadata: map[string]interface{}{"state": st.String()}}
		switch st {
		case circuit.Closed:
			res.Status = HealthStatusHealthy
		default:
			res.Status = HealthStatusDegraded
			res.Message = "upstream failing, calls are short-circuited"
		}
		return res
	})
}
