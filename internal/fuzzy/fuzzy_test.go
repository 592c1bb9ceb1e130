package fuzzy

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 0.05
}

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"air", "air", 100},
		{"air", "airs", 85.71},
		{"air", "air gear", 54.55},
		{"", "", 100},
		{"abc", "", 0},
		{"frieren", "frieren beyond journey's end", 40},
		{"葬送のフリーレン", "葬送のフリーレン", 100},
	}
	for _, tt := range tests {
		if got := Ratio(tt.a, tt.b); !approx(got, tt.want) {
			t.Errorf("Ratio(%q, %q) = %.2f, want %.2f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFoldRatio(t *testing.T) {
	if got := FoldRatio("AIR", "air"); got != 100 {
		t.Errorf("FoldRatio should ignore case, got %.2f", got)
	}
}

func TestMaxRatioBoundsRatio(t *testing.T) {
	pairs := [][2]string{{"air", "air gear"}, {"kanon", "clannad"}, {"a", "abcdefgh"}}
	for _, p := range pairs {
		la, lb := len([]rune(p[0])), len([]rune(p[1]))
		if Ratio(p[0], p[1]) > MaxRatio(la, lb)+1e-9 {
			t.Errorf("Ratio(%q,%q) exceeds its upper bound", p[0], p[1])
		}
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"attack on titan", "attack on titan", 1},
		{"attack on titan", "titan attack", 2.0 / 3.0},
		{"frieren", "frieren beyond journey's end", 0.25},
		{"", "anything", 0},
		{"a a a", "a", 1},
	}
	for _, tt := range tests {
		if got := Jaccard(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Jaccard(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestWordCount(t *testing.T) {
	if WordCount("  Air  Gear ") != 2 {
		t.Error("WordCount should ignore extra spaces")
	}
}
