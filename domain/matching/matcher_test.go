package matching

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"scaled copy", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 2, 3}, -1},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, -1},
		{"empty", []float32{}, []float32{}, -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CosineSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("CosineSimilarity(%v, %v) = %v; want %v", tc.a, tc.b, got, tc.expected)
			}
		})
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := []float32{0.3, -0.7, 0.64, 0.11}
	b := []float32{-0.2, 0.9, 0.05, 0.4}
	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Errorf("similarity is not symmetric")
	}
}

func TestMatchEmptyGallery(t *testing.T) {
	m := NewMatcher(0.7)
	result := m.Match([]float32{1, 2, 3}, nil)
	if result.Matched {
		t.Errorf("empty gallery must never match")
	}
}

func TestMatchZeroNormQuery(t *testing.T) {
	m := NewMatcher(0.7)
	gallery := []GalleryEntry{{RegNo: "S001", Name: "Alice", Embedding: []float32{1, 0, 0}}}
	result := m.Match([]float32{0, 0, 0}, gallery)
	if result.Matched {
		t.Errorf("zero-norm query must not match")
	}
}

func TestMatchSelfSimilarity(t *testing.T) {
	emb := []float32{0.1, 0.5, -0.3, 0.8}
	gallery := []GalleryEntry{{RegNo: "S001", Name: "Alice", Embedding: emb}}

	m := NewMatcher(0.99)
	result := m.Match(emb, gallery)
	if !result.Matched {
		t.Fatalf("querying with an enrolled embedding must match, got score %v", result.Score)
	}
	if result.RegNo != "S001" || result.Name != "Alice" {
		t.Errorf("matched wrong identity: %+v", result)
	}
	if math.Abs(result.Score-1) > 1e-6 {
		t.Errorf("self-similarity = %v; want 1", result.Score)
	}
}

func TestMatchBelowThresholdKeepsBestScore(t *testing.T) {
	gallery := []GalleryEntry{
		{RegNo: "S001", Name: "Alice", Embedding: []float32{1, 0}},
		{RegNo: "S002", Name: "Bob", Embedding: []float32{0, 1}},
	}

	m := NewMatcher(0.9)
	// 45 degrees from both entries: similarity ~0.707, below threshold.
	result := m.Match([]float32{1, 1}, gallery)
	if result.Matched {
		t.Fatalf("score below threshold must not match")
	}
	if result.RegNo != "" || result.Name != "" {
		t.Errorf("rejected result must not carry an identity: %+v", result)
	}
	if math.Abs(result.Score-math.Sqrt2/2) > 1e-6 {
		t.Errorf("best score not retained: %v", result.Score)
	}
}

func TestMatchThresholdIsStrict(t *testing.T) {
	gallery := []GalleryEntry{{RegNo: "S001", Name: "Alice", Embedding: []float32{1, 0}}}

	// Exact threshold equality must reject; only strictly greater accepts.
	m := NewMatcher(1.0)
	result := m.Match([]float32{1, 0}, gallery)
	if result.Matched {
		t.Errorf("score equal to threshold must be rejected")
	}
}

func TestMatchTieBreakIsStable(t *testing.T) {
	emb := []float32{1, 0, 0}
	gallery := []GalleryEntry{
		{RegNo: "S001", Name: "Alice", Embedding: emb},
		{RegNo: "S002", Name: "Bob", Embedding: emb},
	}

	m := NewMatcher(0.5)
	for i := 0; i < 10; i++ {
		result := m.Match(emb, gallery)
		if result.RegNo != "S001" {
			t.Fatalf("tie must resolve to the first gallery entry, got %s", result.RegNo)
		}
	}
}

func TestMatchPicksNearestNeighbour(t *testing.T) {
	gallery := []GalleryEntry{
		{RegNo: "S001", Name: "Alice", Embedding: []float32{1, 0, 0}},
		{RegNo: "S002", Name: "Bob", Embedding: []float32{0, 1, 0}},
		{RegNo: "S003", Name: "Carol", Embedding: []float32{0.9, 0.1, 0}},
	}

	m := NewMatcher(0.5)
	result := m.Match([]float32{0.9, 0.1, 0}, gallery)
	if !result.Matched || result.RegNo != "S003" {
		t.Errorf("expected nearest entry S003, got %+v", result)
	}
}
