package model

import "sort"

// Source tags where an extracted value came from.
type Source string

const (
	SourcePattern  Source = "pattern"
	SourceLLM      Source = "llm"
	SourceTLD      Source = "tld"
	SourceFallback Source = "fallback"
)

// ScoredCandidate pairs a value with a confidence in [0,1] and a provenance
// tag. Immutable once produced.
type ScoredCandidate[T any] struct {
	Value      T       `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// SortByConfidence orders candidates by confidence descending. The sort is
// stable so ties keep discovery order (first seen wins).
func SortByConfidence[T any](cands []ScoredCandidate[T]) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Confidence > cands[j].Confidence
	})
}

// ClampConfidence bounds a confidence score to [lo, hi].
func ClampConfidence(score, lo, hi float64) float64 {
	if score < lo {
		return lo
	}
	if score > hi {
		return hi
	}
	return score
}

// ExtractionResult is a scored string value produced by field enrichment.
type ExtractionResult = ScoredCandidate[string]
