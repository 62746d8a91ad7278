package random

import "testing"

func TestUniformBounds(t *testing.T) {
	if got := Uniform(&Sequence{Values: []float64{0}}, 0.1, 0.2); got != 0.1 {
		t.Fatalf("expected lower bound, got %v", got)
	}
	if got := Uniform(&Sequence{Values: []float64{0.5}}, 0.1, 0.2); Round3(got) != 0.15 {
		t.Fatalf("expected midpoint, got %v", got)
	}
}

func TestRound3(t *testing.T) {
	if got := Round3(0.12345); got != 0.123 {
		t.Fatalf("Round3 = %v", got)
	}
	if got := Round3(0.0996); got != 0.1 {
		t.Fatalf("Round3 = %v", got)
	}
}

func TestIndexClamps(t *testing.T) {
	if got := Index(&Sequence{Values: []float64{0.999999}}, 3); got != 2 {
		t.Fatalf("Index = %d", got)
	}
	if got := Index(&Sequence{Values: []float64{1}}, 3); got != 2 {
		t.Fatalf("Index clamps at n-1, got %d", got)
	}
}

func TestChoice(t *testing.T) {
	src := &Sequence{Values: []float64{0.6}}
	if got := Choice(src, []string{"a", "b"}); got != "b" {
		t.Fatalf("Choice = %q", got)
	}
	if got := Choice(src, []string(nil)); got != "" {
		t.Fatalf("Choice on empty = %q", got)
	}
}

func TestSampleWithoutReplacement(t *testing.T) {
	options := []string{"a", "b", "c", "d", "e"}
	got := Sample(&Sequence{Values: []float64{0, 0, 0}}, options, 3)
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sample = %v, want %v", got, want)
		}
	}

	got = Sample(&Sequence{Values: []float64{0.99}}, options, 3)
	seen := map[string]bool{}
	for _, v := range got {
		if seen[v] {
			t.Fatalf("duplicate %q in %v", v, got)
		}
		seen[v] = true
	}
	if options[0] != "a" || options[4] != "e" {
		t.Fatalf("input mutated: %v", options)
	}

	if got := Sample(&Sequence{}, []string{"x"}, 3); len(got) != 1 {
		t.Fatalf("expected sample capped at len, got %v", got)
	}
}

func TestDefaultInRange(t *testing.T) {
	src := Default()
	for i := 0; i < 100; i++ {
		if v := src.Float64(); v < 0 || v >= 1 {
			t.Fatalf("out of range: %v", v)
		}
	}
}
