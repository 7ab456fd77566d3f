package health

import (
	"context"
	"time"
)

// CheckType represents the type of health check
type CheckType string

const (
	CheckTypeDocument CheckType = "document"
	CheckTypeRoster   CheckType = "roster"
)

// Result represents the outcome of a health check
type Result struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker is the interface that all health checkers must implement
type Checker interface {
	// Check performs the health check and returns the result
	Check(ctx context.Context) Result

	// Type returns the type of health check
	Type() CheckType

	// Name identifies what is being checked
	Name() string
}

// Config contains common configuration for a run of checks
type Config struct {
	// Timeout is the maximum time to wait for a single check to complete
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout: 10 * time.Second,
	}
}

// Report pairs a checker with its result
type Report struct {
	Name   string
	Type   CheckType
	Result Result
}

// Run performs every check in order and returns their reports
func Run(ctx context.Context, config Config, checkers ...Checker) []Report {
	reports := make([]Report, 0, len(checkers))
	for _, c := range checkers {
		checkCtx, cancel := context.WithTimeout(ctx, config.Timeout)
		result := c.Check(checkCtx)
		cancel()

		reports = append(reports, Report{
			Name:   c.Name(),
			Type:   c.Type(),
			Result: result,
		})
	}
	return reports
}

// Healthy reports whether every report passed
func Healthy(reports []Report) bool {
	for _, r := range reports {
		if !r.Result.Healthy {
			return false
		}
	}
	return true
}

func result(start time.Time, healthy bool, message string) Result {
	return Result{
		Healthy:   healthy,
		Message:   message,
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}
