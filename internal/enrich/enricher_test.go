package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyscope/policyscan/internal/config"
	"github.com/policyscope/policyscan/internal/model"
)

// stubOracle records every call and returns a canned answer.
type stubOracle struct {
	mu           sync.Mutex
	answer       string
	err          error
	instructions []string
	texts        []string
}

func (s *stubOracle) Ask(_ context.Context, instruction, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instructions = append(s.instructions, instruction)
	s.texts = append(s.texts, text)
	return s.answer, s.err
}

func (s *stubOracle) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.instructions)
}

func testEnrichConfig() config.EnrichConfig {
	return config.EnrichConfig{
		ExtractEmails:     true,
		ExtractCountry:    true,
		ExtractDeleteLink: true,
		EnableLLMFallback: true,
		MaxOracleChars:    4000,
	}
}

func TestLLMEnabled(t *testing.T) {
	cfg := testEnrichConfig()

	e := NewEnricher(&stubOracle{}, cfg)
	assert.True(t, e.llmEnabled(true))
	assert.False(t, e.llmEnabled(false))

	cfg.EnableLLMFallback = false
	e = NewEnricher(&stubOracle{}, cfg)
	assert.False(t, e.llmEnabled(true))

	// No client wired at all.
	e = NewEnricher(nil, testEnrichConfig())
	assert.False(t, e.llmEnabled(true))
}

func TestAskOracle_TruncatesText(t *testing.T) {
	oracle := &stubOracle{answer: "none"}
	cfg := testEnrichConfig()
	cfg.MaxOracleChars = 10
	e := NewEnricher(oracle, cfg)

	_, err := e.askOracle(context.Background(), "instruction", "0123456789abcdef")
	require.NoError(t, err)
	require.Len(t, oracle.texts, 1)
	assert.Equal(t, "0123456789", oracle.texts[0])
}

func TestAskOracle_TruncatesOnRuneBoundary(t *testing.T) {
	oracle := &stubOracle{answer: "none"}
	cfg := testEnrichConfig()
	cfg.MaxOracleChars = 10
	e := NewEnricher(oracle, cfg)

	// The two-byte é straddles the cut point at byte 10.
	text := strings.Repeat("a", 9) + "é" + "tail"
	_, err := e.askOracle(context.Background(), "instruction", text)
	require.NoError(t, err)

	require.Len(t, oracle.texts, 1)
	assert.True(t, utf8.ValidString(oracle.texts[0]))
	assert.Equal(t, strings.Repeat("a", 9), oracle.texts[0])
}

func TestEnrichCompany_AllFields(t *testing.T) {
	e := NewEnricher(nil, testEnrichConfig())
	company := model.Company{Domain: "shop.example.de"}
	text := "Contact privacy@shop.example.de with questions. We are incorporated in Germany."

	enriched, meta, err := e.EnrichCompany(context.Background(), company, text, false)
	require.NoError(t, err)

	assert.Equal(t, "privacy@shop.example.de", enriched.Email)
	assert.Equal(t, "DE", enriched.Country)
	assert.Empty(t, enriched.DeleteLink)

	assert.Contains(t, meta.Fields, "email")
	assert.Contains(t, meta.Fields, "country")
	// No deletion link in the text, so no outcome is recorded for it.
	assert.NotContains(t, meta.Fields, "delete_link")

	assert.Equal(t, model.SourceTLD, meta.Fields["country"].Source)
	assert.False(t, meta.Fields["email"].Retained)
}

func TestEnrichCompany_ExistingValueRetained(t *testing.T) {
	oracle := &stubOracle{answer: "none"}
	e := NewEnricher(oracle, testEnrichConfig())
	company := model.Company{
		Domain: "example.com",
		Email:  "existing@example.com",
	}
	text := "Contact privacy@other.example instead."

	enriched, meta, err := e.EnrichCompany(context.Background(), company, text, true)
	require.NoError(t, err)

	assert.Equal(t, "existing@example.com", enriched.Email)
	outcome := meta.Fields["email"]
	assert.True(t, outcome.Retained)
	assert.Equal(t, model.SourceFallback, outcome.Source)
	assert.InDelta(t, 1.0, outcome.Confidence, 1e-9)
}

func TestEnrichCompany_InvalidExistingValueAudited(t *testing.T) {
	// "not-an-email" fails validation so it cannot short-circuit, and the
	// text offers no replacement. The audit block still records the value
	// as retained instead of staying silent about the field.
	e := NewEnricher(nil, testEnrichConfig())
	company := model.Company{
		Domain: "example.com",
		Email:  "not-an-email",
	}

	enriched, meta, err := e.EnrichCompany(context.Background(), company, "we value your privacy", false)
	require.NoError(t, err)

	assert.Equal(t, "not-an-email", enriched.Email)
	require.Contains(t, meta.Fields, "email")
	outcome := meta.Fields["email"]
	assert.Equal(t, "not-an-email", outcome.Value)
	assert.Equal(t, model.SourceFallback, outcome.Source)
	assert.True(t, outcome.Retained)
	assert.Empty(t, outcome.Error)
	assert.False(t, outcome.ExtractedAt.IsZero())
}

func TestEnrichCompany_FieldFailureIsolated(t *testing.T) {
	e := NewEnricher(nil, testEnrichConfig())
	// Empty text fails email and delete-link extraction; country still
	// resolves from its existing value.
	company := model.Company{Domain: "example.com", Country: "US"}

	enriched, meta, err := e.EnrichCompany(context.Background(), company, "", false)
	require.NoError(t, err)

	assert.NotEmpty(t, meta.Fields["email"].Error)
	assert.NotEmpty(t, meta.Fields["delete_link"].Error)

	country := meta.Fields["country"]
	assert.Empty(t, country.Error)
	assert.Equal(t, "US", country.Value)
	assert.Equal(t, "US", enriched.Country)
}

func TestEnrichCompany_DisabledFieldsSkipped(t *testing.T) {
	cfg := testEnrichConfig()
	cfg.ExtractCountry = false
	cfg.ExtractDeleteLink = false
	e := NewEnricher(nil, cfg)

	text := "Reach us at privacy@example.com. We operate from Germany."
	enriched, meta, err := e.EnrichCompany(context.Background(), model.Company{Domain: "example.com"}, text, false)
	require.NoError(t, err)

	assert.Contains(t, meta.Fields, "email")
	assert.NotContains(t, meta.Fields, "country")
	assert.NotContains(t, meta.Fields, "delete_link")
	assert.Empty(t, enriched.Country)
}

func TestEnrichCompany_OracleErrorDoesNotFailRun(t *testing.T) {
	oracle := &stubOracle{err: errors.New("oracle unavailable")}
	e := NewEnricher(oracle, testEnrichConfig())

	// Nothing for patterns to find, so every field escalates and the oracle
	// fails each time.
	_, meta, err := e.EnrichCompany(context.Background(), model.Company{Domain: "example.com"}, "no useful content here", true)
	require.NoError(t, err)

	// Failed oracle calls degrade to "nothing found", not errors.
	for field, outcome := range meta.Fields {
		assert.Empty(t, outcome.Error, field)
	}
	assert.Greater(t, oracle.callCount(), 0)
}
