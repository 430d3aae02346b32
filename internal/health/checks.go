package health

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is reported by [Required] when a provider role has no
// usable backend.
var ErrNotConfigured = errors.New("not configured")

// Reporter is implemented by provider groups that know whether at least one
// backend is currently available (e.g. resilience.STTFallback).
type Reporter interface {
	Healthy() bool
}

// Credentials fails while any of the named settings is missing. missing is
// evaluated once, at construction.
func Credentials(missing ...string) Checker {
	msg := strings.Join(missing, ", ")
	return Checker{
		Name: "credentials",
		Check: func(context.Context) error {
			if msg != "" {
				return fmt.Errorf("missing %s", msg)
			}
			return nil
		},
	}
}

// Required fails when p is nil or reports no healthy backend. name is the
// provider role ("stt", "llm", "tts", ...).
func Required(name string, p Reporter) Checker {
	return Checker{
		Name: name,
		Check: func(context.Context) error {
			if p == nil {
				return ErrNotConfigured
			}
			if !p.Healthy() {
				return errors.New("all backends unavailable")
			}
			return nil
		},
	}
}
