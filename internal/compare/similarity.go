package compare

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// highValueOverlapFactor is the fraction of a case-A high-value amount
// a case-B amount must reach to count as overlapping.
var highValueOverlapFactor = decimal.NewFromFloat(0.8)

// cosineSimilarity computes the cosine of the angle between two
// vectors, zero-padding the shorter one. Two empty or zero vectors
// have similarity 0.
func cosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		var x, y float64
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// intersect returns the sorted intersection of two sets.
func intersect(a, b map[string]bool) []string {
	var out []string
	for v := range a {
		if b[v] {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func toFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
