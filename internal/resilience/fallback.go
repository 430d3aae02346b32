package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoProviders is returned when a [FallbackGroup] has no entries.
var ErrNoProviders = errors.New("resilience: no providers registered")

// FallbackConfig configures the entries of a [FallbackGroup].
type FallbackConfig struct {
	// CircuitBreaker is the template for each entry's breaker. Name is
	// replaced by the entry name.
	CircuitBreaker CircuitBreakerConfig

	// DisableBreakers runs every entry on every call, without a breaker.
	DisableBreakers bool
}

// fallbackEntry pairs a provider value with its circuit breaker. breaker is
// nil when breakers are disabled.
type fallbackEntry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

func (e *fallbackEntry[T]) call(fn func() error) error {
	if e.breaker == nil {
		return fn()
	}
	return e.breaker.Execute(fn)
}

// FallbackGroup wraps a primary and zero or more fallback instances of the same
// provider type. When the primary fails (or its circuit breaker is open), the
// next fallback is tried in registration order.
//
// Entries must be registered before the group is shared. After that the
// group is safe for concurrent use.
type FallbackGroup[T any] struct {
	entries []fallbackEntry[T]
	cfg     FallbackConfig
}

// NewFallbackGroup creates a [FallbackGroup] with primary as the first entry.
// Additional fallbacks are registered via [FallbackGroup.AddFallback].
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(primaryName, primary)
	return fg
}

// AddFallback appends a fallback provider. Fallbacks are tried in the order they
// are added, after the primary.
func (fg *FallbackGroup[T]) AddFallback(name string, fallback T) {
	entry := fallbackEntry[T]{name: name, value: fallback}
	if !fg.cfg.DisableBreakers {
		cbCfg := fg.cfg.CircuitBreaker
		cbCfg.Name = name
		entry.breaker = NewCircuitBreaker(cbCfg)
	}
	fg.entries = append(fg.entries, entry)
}

// Names returns the entry names in the order they are tried.
func (fg *FallbackGroup[T]) Names() []string {
	names := make([]string, len(fg.entries))
	for i, e := range fg.entries {
		names[i] = e.name
	}
	return names
}

// Primary returns the first registered entry.
func (fg *FallbackGroup[T]) Primary() T {
	return fg.entries[0].value
}

// Healthy reports whether at least one entry would currently accept a call,
// i.e. has no breaker or a breaker that is not open.
func (fg *FallbackGroup[T]) Healthy() bool {
	for _, e := range fg.entries {
		if e.breaker == nil || e.breaker.State() != StateOpen {
			return true
		}
	}
	return false
}

// Execute tries fn against each entry in order until one succeeds.
// See [ExecuteWithResult].
func (fg *FallbackGroup[T]) Execute(ctx context.Context, fn func(T) error) error {
	_, err := ExecuteWithResult(ctx, fg, func(v T) (struct{}, error) {
		return struct{}{}, fn(v)
	})
	return err
}

// ExecuteWithResult tries fn against each entry in the group until one succeeds,
// returning both the result value and error. Entries whose breaker is open are
// skipped. When every entry fails the error wraps [ErrAllFailed] and an
// [*AttemptsError] naming each provider.
//
// This is a package-level function because Go does not support method-level
// type parameters.
func ExecuteWithResult[T any, R any](ctx context.Context, fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	return executeWhere(ctx, fg, nil, fn)
}

// executeWhere is [ExecuteWithResult] restricted to the entries for which keep
// returns true. A nil keep selects every entry.
func executeWhere[T any, R any](ctx context.Context, fg *FallbackGroup[T], keep func(T) bool, fn func(T) (R, error)) (R, error) {
	var steps []Step[R]
	for i := range fg.entries {
		entry := &fg.entries[i]
		if keep != nil && !keep(entry.value) {
			continue
		}
		steps = append(steps, Step[R]{
			Name: "[" + entry.name + "]",
			Run: func(ctx context.Context) (R, error) {
				var result R
				err := entry.call(func() error {
					var innerErr error
					result, innerErr = fn(entry.value)
					return innerErr
				})
				switch {
				case err == nil:
				case errors.Is(err, ErrCircuitOpen):
					slog.Debug("skipping provider (circuit open)", "provider", entry.name)
				default:
					slog.Warn("provider failed, trying next", "provider", entry.name, "err", err)
				}
				return result, err
			},
		})
	}
	if len(steps) == 0 {
		var zero R
		return zero, ErrNoProviders
	}

	result, _, err := RunLadder(ctx, steps)
	if err != nil {
		return result, fmt.Errorf("resilience: all providers failed: %w", err)
	}
	return result, nil
}
