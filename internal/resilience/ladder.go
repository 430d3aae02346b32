package resilience

import (
	"context"
	"errors"
	"strings"
)

// ErrAllFailed is matched by every error returned when a ladder or a
// [FallbackGroup] runs out of options.
var ErrAllFailed = errors.New("all attempts failed")

// Step is one strategy in an ordered ladder. Name identifies the step in
// aggregated error messages, e.g. "[model=whisper-1, format=verbose_json]".
type Step[R any] struct {
	Name string
	Run  func(ctx context.Context) (R, error)
}

// Attempt records why a single step failed.
type Attempt struct {
	Name string
	Err  error
}

func (a Attempt) String() string {
	if a.Name == "" {
		return a.Err.Error()
	}
	return a.Name + " " + a.Err.Error()
}

// AttemptsError is returned by [RunLadder] when no step succeeded. Its message
// lists every attempt in order, separated by " | ". It matches [ErrAllFailed]
// and unwraps to the individual step errors.
type AttemptsError struct {
	Attempts []Attempt
}

func (e *AttemptsError) Error() string {
	if len(e.Attempts) == 0 {
		return "no attempts were made"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.String()
	}
	return strings.Join(parts, " | ")
}

// Unwrap returns the step errors so [errors.Is] and [errors.As] see through
// the aggregate.
func (e *AttemptsError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}

// Is reports whether target is [ErrAllFailed].
func (e *AttemptsError) Is(target error) bool {
	return target == ErrAllFailed
}

// RunLadder runs steps in order and returns the value and name of the first
// step that succeeds. Later steps are not started once one succeeds. If the
// context is done before a step starts, the ladder stops and the context
// error is recorded as that step's failure.
//
// When every step fails the error is an [*AttemptsError].
func RunLadder[R any](ctx context.Context, steps []Step[R]) (R, string, error) {
	var zero R
	failed := &AttemptsError{Attempts: make([]Attempt, 0, len(steps))}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			failed.Attempts = append(failed.Attempts, Attempt{Name: step.Name, Err: err})
			break
		}
		v, err := step.Run(ctx)
		if err == nil {
			return v, step.Name, nil
		}
		failed.Attempts = append(failed.Attempts, Attempt{Name: step.Name, Err: err})
	}
	return zero, "", failed
}
