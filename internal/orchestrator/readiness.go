package orchestrator

import (
	"context"
	"errors"
	"fmt"
)

// ReadinessChecker is the pre-flight probe a testnet session must pass
// before it is admitted into the registry.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// CheckFunc adapts a function to ReadinessChecker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// ReadinessError reports a failed pre-flight check. The session was never
// created; there is nothing to stop or query.
type ReadinessError struct {
	Cause error
}

func (e *ReadinessError) Error() string {
	return fmt.Sprintf("readiness check failed: %v", e.Cause)
}

func (e *ReadinessError) Unwrap() error { return e.Cause }

// IsReadinessError reports whether err is a readiness failure.
func IsReadinessError(err error) bool {
	var re *ReadinessError
	return errors.As(err, &re)
}
