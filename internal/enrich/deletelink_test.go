package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyscope/policyscan/internal/model"
)

func TestExtractDeleteLinks_DeletionSectionWithPathBonus(t *testing.T) {
	e := NewEnricher(nil, testEnrichConfig())
	text := "To submit a data deletion request, visit https://example.com/privacy/delete-account today."

	results := e.ExtractDeleteLinks(text)
	require.NotEmpty(t, results)
	assert.Equal(t, "https://example.com/privacy/delete-account", results[0].Value)
	// 0.95 deletion language plus the path bonus, clamped.
	assert.InDelta(t, 0.99, results[0].Confidence, 1e-9)
	assert.Equal(t, model.SourcePattern, results[0].Source)
}

func TestExtractDeleteLinks_GenericSectionNoPathBonus(t *testing.T) {
	e := NewEnricher(nil, testEnrichConfig())
	text := "For help, use our contact form at https://example.com/reach-us anytime."

	results := e.ExtractDeleteLinks(text)
	require.NotEmpty(t, results)
	assert.Equal(t, "https://example.com/reach-us", results[0].Value)
	assert.InDelta(t, 0.70, results[0].Confidence, 1e-9)
}

func TestExtractDeleteLinks_AnchorMarkup(t *testing.T) {
	e := NewEnricher(nil, testEnrichConfig())
	text := `<a href="https://example.com/forms/erase">Delete my data</a>`

	results := e.ExtractDeleteLinks(text)
	require.NotEmpty(t, results)
	assert.Equal(t, "https://example.com/forms/erase", results[0].Value)
	assert.InDelta(t, 0.85, results[0].Confidence, 1e-9)
}

func TestExtractDeleteLinks_SardKeyword(t *testing.T) {
	e := NewEnricher(nil, testEnrichConfig())

	cases := []struct {
		name string
		text string
		conf float64
	}{
		{"section", "Submit a sard form at https://example.com/start today.", 0.95},
		{"button", "Use the sard https://example.com/start to manage stored details.", 0.90},
		{"anchor", `<a href="https://example.com/start">Open SARD</a>`, 0.85},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results := e.ExtractDeleteLinks(tc.text)
			require.NotEmpty(t, results)
			assert.Equal(t, "https://example.com/start", results[0].Value)
			assert.InDelta(t, tc.conf, results[0].Confidence, 1e-9)
		})
	}
}

func TestExtractDeleteLinks_CoercesSchemelessURL(t *testing.T) {
	e := NewEnricher(nil, testEnrichConfig())
	text := "Data deletion requests: www.example.com/delete-me"

	results := e.ExtractDeleteLinks(text)
	require.NotEmpty(t, results)
	assert.Equal(t, "https://www.example.com/delete-me", results[0].Value)
}

func TestExtractDeleteLinks_Deduplicates(t *testing.T) {
	e := NewEnricher(nil, testEnrichConfig())
	text := "Data deletion request: https://example.com/erase. " +
		"Privacy request portal: https://example.com/erase."

	results := e.ExtractDeleteLinks(text)
	require.Len(t, results, 1)
}

func TestPathNamesDataRights(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://example.com/privacy/delete", true},
		{"https://example.com/dsar-form", true},
		{"https://example.com/reach-us", false},
		// Keyword only in the query string does not count.
		{"https://example.com/form?topic=privacy", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, pathNamesDataRights(tc.url), tc.url)
	}
}

func TestEnrichDeleteLink_CurrentValueShortCircuits(t *testing.T) {
	oracle := &stubOracle{answer: "https://other.example/erase"}
	e := NewEnricher(oracle, testEnrichConfig())

	result, err := e.EnrichDeleteLink(context.Background(), "irrelevant", "https://example.com/delete", true)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "https://example.com/delete", result.Value)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
	assert.Equal(t, model.SourceFallback, result.Source)
	assert.Zero(t, oracle.callCount())
}

func TestEnrichDeleteLink_EmptyText(t *testing.T) {
	e := NewEnricher(nil, testEnrichConfig())
	_, err := e.EnrichDeleteLink(context.Background(), "", "", false)
	assert.ErrorIs(t, err, errEmptyText)
}

func TestEnrichDeleteLink_OracleFallback(t *testing.T) {
	oracle := &stubOracle{answer: "www.example.com/dsar"}
	e := NewEnricher(oracle, testEnrichConfig())

	result, err := e.EnrichDeleteLink(context.Background(), "Contact us by postal mail.", "", true)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "https://www.example.com/dsar", result.Value)
	assert.Equal(t, model.SourceLLM, result.Source)
	assert.InDelta(t, llmDeleteLinkConfidence, result.Confidence, 1e-9)
}

func TestEnrichDeleteLink_OracleDeclines(t *testing.T) {
	oracle := &stubOracle{answer: "NONE"}
	e := NewEnricher(oracle, testEnrichConfig())

	result, err := e.EnrichDeleteLink(context.Background(), "Contact us by postal mail.", "", true)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 1, oracle.callCount())
}
