package resilience

import (
	"context"
	"errors"
	"testing"
)

func TestRunLadder_FirstSuccessWins(t *testing.T) {
	var ran []string
	step := func(name string, err error) Step[string] {
		return Step[string]{Name: name, Run: func(context.Context) (string, error) {
			ran = append(ran, name)
			return name, err
		}}
	}

	v, name, err := RunLadder(context.Background(), []Step[string]{
		step("a", errTest),
		step("b", nil),
		step("c", nil),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "b" || name != "b" {
		t.Fatalf("got (%q, %q), want (b, b)", v, name)
	}
	if len(ran) != 2 {
		t.Fatalf("ran = %v, want [a b]", ran)
	}
}

func TestRunLadder_AllFail(t *testing.T) {
	errA := errors.New("401 unauthorized")
	errB := errors.New("unsupported response_format")
	steps := []Step[int]{
		{Name: "[model=x, format=verbose_json]", Run: func(context.Context) (int, error) { return 0, errA }},
		{Name: "[model=x, format=json]", Run: func(context.Context) (int, error) { return 0, errB }},
	}

	_, _, err := RunLadder(context.Background(), steps)
	if err == nil {
		t.Fatal("expected error")
	}
	want := "[model=x, format=verbose_json] 401 unauthorized | [model=x, format=json] unsupported response_format"
	if err.Error() != want {
		t.Fatalf("err = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrAllFailed) {
		t.Fatal("err does not match ErrAllFailed")
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatal("err does not unwrap to step errors")
	}
}

func TestRunLadder_NoSteps(t *testing.T) {
	_, _, err := RunLadder[int](context.Background(), nil)
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
	if err.Error() == "" {
		t.Fatal("empty error message")
	}
}

func TestRunLadder_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	steps := []Step[int]{
		{Name: "first", Run: func(context.Context) (int, error) {
			calls++
			cancel()
			return 0, errTest
		}},
		{Name: "second", Run: func(context.Context) (int, error) {
			calls++
			return 1, nil
		}},
	}

	_, _, err := RunLadder(ctx, steps)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestAttempt_String(t *testing.T) {
	if got := (Attempt{Err: errTest}).String(); got != "test error" {
		t.Fatalf("String() = %q", got)
	}
	if got := (Attempt{Name: "[a]", Err: errTest}).String(); got != "[a] test error" {
		t.Fatalf("String() = %q", got)
	}
}
