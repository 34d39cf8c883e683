package matching

import "math"

// GalleryEntry is one enrolled identity in the in-memory gallery.
type GalleryEntry struct {
	RegNo     string
	Name      string
	Embedding []float32
}

// MatchResult is the outcome of a nearest-neighbour lookup. Score holds the
// best similarity seen even when Matched is false, for diagnostics.
type MatchResult struct {
	Matched bool
	RegNo   string
	Name    string
	Score   float64
}

// Matcher resolves a query embedding to the closest enrolled identity.
// The accept threshold is injected once; every decision path shares it.
type Matcher struct {
	threshold float64
}

func NewMatcher(threshold float64) *Matcher {
	return &Matcher{threshold: threshold}
}

// Threshold returns the configured accept threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match scans the gallery for the entry with maximum cosine similarity to
// the query. Ties keep the first entry in gallery order. The match is
// accepted only when the best score is strictly greater than the threshold.
// An empty gallery or a zero-norm query always yields a non-match.
func (m *Matcher) Match(query []float32, gallery []GalleryEntry) MatchResult {
	if len(gallery) == 0 || isZeroNorm(query) {
		return MatchResult{Score: -1}
	}

	best := MatchResult{Score: -1}
	for _, entry := range gallery {
		score := CosineSimilarity(query, entry.Embedding)
		if score > best.Score {
			best = MatchResult{RegNo: entry.RegNo, Name: entry.Name, Score: score}
		}
	}

	if best.Score > m.threshold {
		best.Matched = true
		return best
	}

	// Keep the best score for diagnostics but drop the identity.
	return MatchResult{Score: best.Score}
}

// CosineSimilarity computes the cosine similarity of two vectors, clamped
// to [-1, 1] to absorb floating point error. Mismatched or degenerate
// inputs yield -1, the minimum similarity.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return -1
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim
}

func isZeroNorm(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
