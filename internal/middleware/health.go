package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HealthChecker defines interface for health checking
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a plain function, e.g. a redis ping.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// Optional marks a dependency the API keeps serving without, like the redis
// limiter store. Its failure reports "degraded" and /health stays 200.
type Optional struct {
	HealthChecker
	// Impact is appended to the error, e.g. "rate limits are per process".
	Impact string
}

func (o Optional) Check(ctx context.Context) error {
	err := o.HealthChecker.Check(ctx)
	if err != nil && o.Impact != "" {
		return fmt.Errorf("%w (%s)", err, o.Impact)
	}
	return err
}

// DatabaseHealthChecker pings the saved scripts database
type DatabaseHealthChecker struct {
	DB *sql.DB
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("saved scripts unavailable: %w", err)
	}
	return nil
}

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthStatus represents the health status
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

// CheckStatus represents individual check status
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthHandler runs every checker. A failing required checker answers 503,
// failing Optional ones only mark the result degraded.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := HealthStatus{
			Status:    statusHealthy,
			Timestamp: time.Now(),
			Checks:    make(map[string]CheckStatus, len(checkers)),
		}

		for name, checker := range checkers {
			err := checker.Check(ctx)
			if err == nil {
				health.Checks[name] = CheckStatus{Status: statusHealthy}
				continue
			}
			if _, optional := checker.(Optional); optional {
				health.Checks[name] = CheckStatus{Status: statusDegraded, Message: err.Error()}
				if health.Status == statusHealthy {
					health.Status = statusDegraded
				}
				continue
			}
			health.Status = statusUnhealthy
			health.Checks[name] = CheckStatus{Status: statusUnhealthy, Message: err.Error()}
		}

		statusCode := http.StatusOK
		if health.Status == statusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(health)
	}
}

// ReadinessHandler creates a readiness check handler (simpler than health)
func ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessHandler creates a liveness check handler (simplest check)
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
