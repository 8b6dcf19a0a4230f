package lrc

import (
	"testing"
)

func TestIndexAtBoundaries(t *testing.T) {
	lines := []Line{
		{Time: 0.0, Text: "a"},
		{Time: 2.0, Text: "b"},
		{Time: 5.0, Text: "c"},
	}

	tests := []struct {
		name string
		t    float64
		want int
	}{
		{"before first line", -0.5, -1},
		{"exactly first line", 0.0, 0},
		{"just before second", 1.9, 0},
		{"exactly second line", 2.0, 1},
		{"just before third", 4.999, 1},
		{"exactly third line", 5.0, 2},
		{"far past the end", 10.0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IndexAt(lines, tt.t); got != tt.want {
				t.Errorf("IndexAt(lines, %v) = %d, want %d", tt.t, got, tt.want)
			}
		})
	}
}

func TestIndexAtEmpty(t *testing.T) {
	if got := IndexAt(nil, 1.0); got != -1 {
		t.Errorf("expected -1 for no lines, got %d", got)
	}
}

func TestIndexAtIsIdempotent(t *testing.T) {
	lines := []Line{{Time: 1.0, Text: "a"}, {Time: 2.0, Text: "b"}}

	first := IndexAt(lines, 1.5)
	for i := 0; i < 10; i++ {
		if got := IndexAt(lines, 1.5); got != first {
			t.Fatalf("call %d returned %d, first call returned %d", i, got, first)
		}
	}
}
