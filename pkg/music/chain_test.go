package music

import (
	"context"
	"errors"
	"testing"
)

// mockSource counts calls so tests can assert ordering and short-circuiting.
type mockSource struct {
	name   string
	record *Record
	err    error
	calls  int
}

func (m *mockSource) Resolve(ctx context.Context, song Song, duration float64) (*Record, error) {
	m.calls++
	return m.record, m.err
}

func (m *mockSource) Name() string {
	return m.name
}

func TestChainFirstSuccessWins(t *testing.T) {
	first := &mockSource{name: "first", record: &Record{SyncedLyrics: "[00:10.00]Test"}}
	second := &mockSource{name: "second", record: &Record{PlainLyrics: "other"}}

	chain := NewChain(first, second)
	rec, err := chain.Resolve(context.Background(), Song{Title: "t", Artist: "a"}, 0)

	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if rec.SyncedLyrics != "[00:10.00]Test" {
		t.Errorf("expected first source's record, got %+v", rec)
	}
	if second.calls != 0 {
		t.Errorf("second source should not be invoked, got %d calls", second.calls)
	}
}

func TestChainFallsThroughOnMiss(t *testing.T) {
	first := &mockSource{name: "first"} // clean miss
	second := &mockSource{name: "second", record: &Record{PlainLyrics: "found"}}

	chain := NewChain(first, second)
	rec, err := chain.Resolve(context.Background(), Song{}, 0)

	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if rec.PlainLyrics != "found" {
		t.Errorf("expected second source's record, got %+v", rec)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("expected one call each, got %d and %d", first.calls, second.calls)
	}
}

func TestChainFallsThroughOnError(t *testing.T) {
	first := &mockSource{name: "first", err: errors.New("timeout")}
	second := &mockSource{name: "second", record: &Record{PlainLyrics: "found"}}

	chain := NewChain(first, second)
	rec, err := chain.Resolve(context.Background(), Song{}, 0)

	if err != nil {
		t.Fatalf("expected fallthrough success, got error: %v", err)
	}
	if rec.PlainLyrics != "found" {
		t.Errorf("expected second source's record, got %+v", rec)
	}
}

func TestChainSkipsEmptyRecord(t *testing.T) {
	// A record with no content counts as a miss even though it is non-nil.
	first := &mockSource{name: "first", record: &Record{}}
	second := &mockSource{name: "second", record: &Record{PlainLyrics: "found"}}

	chain := NewChain(first, second)
	rec, err := chain.Resolve(context.Background(), Song{}, 0)

	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if rec.PlainLyrics != "found" {
		t.Errorf("expected second source's record, got %+v", rec)
	}
}

func TestChainAllExhausted(t *testing.T) {
	t.Run("AllMiss", func(t *testing.T) {
		chain := NewChain(&mockSource{name: "a"}, &mockSource{name: "b"})
		rec, err := chain.Resolve(context.Background(), Song{}, 0)

		if err != nil {
			t.Errorf("all-miss should not error, got: %v", err)
		}
		if rec != nil {
			t.Errorf("expected nil record, got %+v", rec)
		}
	})

	t.Run("AllFail", func(t *testing.T) {
		lastErr := errors.New("second failure")
		chain := NewChain(
			&mockSource{name: "a", err: errors.New("first failure")},
			&mockSource{name: "b", err: lastErr},
		)
		rec, err := chain.Resolve(context.Background(), Song{}, 0)

		if !errors.Is(err, lastErr) {
			t.Errorf("expected last error to surface, got: %v", err)
		}
		if rec != nil {
			t.Errorf("expected nil record, got %+v", rec)
		}
	})
}

func TestChainOrdering(t *testing.T) {
	var order []string
	mk := func(name string) Source {
		return sourceFunc{name: name, fn: func() (*Record, error) {
			order = append(order, name)
			return nil, nil
		}}
	}

	chain := NewChain(mk("precise"), mk("search"), mk("scrape"))
	chain.Resolve(context.Background(), Song{}, 0)

	want := []string{"precise", "search", "scrape"}
	if len(order) != len(want) {
		t.Fatalf("expected %d invocations, got %v", len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestChainImplementsSource(t *testing.T) {
	var _ Source = NewChain(&mockSource{name: "only"})
}

type sourceFunc struct {
	name string
	fn   func() (*Record, error)
}

func (s sourceFunc) Resolve(context.Context, Song, float64) (*Record, error) { return s.fn() }
func (s sourceFunc) Name() string                                            { return s.name }
