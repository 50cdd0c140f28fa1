package compare

import (
	"math"
	"reflect"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"scaled", []float64{1, 2}, []float64{2, 4}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"both empty", nil, nil, 0},
		{"one empty", []float64{1, 2}, nil, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
		{"shorter padded", []float64{3}, []float64{3, 0, 0}, 1},
	}

	for _, tc := range cases {
		got := cosineSimilarity(tc.a, tc.b)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: cosineSimilarity(%v, %v) = %f, want %f", tc.name, tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCosineSimilarity_Bounded(t *testing.T) {
	a := []float64{5, 1, 0, 2}
	b := []float64{1, 4, 2, 0}
	got := cosineSimilarity(a, b)
	if got < 0 || got > 1 {
		t.Errorf("similarity %f outside [0, 1]", got)
	}
}

func TestIntersect(t *testing.T) {
	a := map[string]bool{"x": true, "y": true, "z": true}
	b := map[string]bool{"z": true, "x": true, "q": true}

	got := intersect(a, b)
	if !reflect.DeepEqual(got, []string{"x", "z"}) {
		t.Errorf("intersect = %v", got)
	}

	if got := intersect(a, map[string]bool{}); len(got) != 0 {
		t.Errorf("expected empty intersection, got %v", got)
	}
}
