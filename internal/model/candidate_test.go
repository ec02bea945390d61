package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortByConfidence_DescendingAndStable(t *testing.T) {
	cands := []ExtractionResult{
		{Value: "first-low", Confidence: 0.60},
		{Value: "high", Confidence: 0.95},
		{Value: "second-low", Confidence: 0.60},
	}

	SortByConfidence(cands)

	assert.Equal(t, "high", cands[0].Value)
	// Ties keep discovery order: first seen wins.
	assert.Equal(t, "first-low", cands[1].Value)
	assert.Equal(t, "second-low", cands[2].Value)
}

func TestClampConfidence(t *testing.T) {
	assert.InDelta(t, 0.99, ClampConfidence(1.2, 0, 0.99), 1e-9)
	assert.InDelta(t, 0.0, ClampConfidence(-0.3, 0, 0.99), 1e-9)
	assert.InDelta(t, 0.5, ClampConfidence(0.5, 0, 0.99), 1e-9)
	assert.InDelta(t, 0.1, ClampConfidence(0.05, 0.1, 1.0), 1e-9)
}
