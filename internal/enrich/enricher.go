// Package enrich extracts contact emails, countries, and data-deletion links
// from policy text. Each field runs a confidence-scored pattern cascade and
// escalates to the LLM oracle only when patterns fall below the field's
// acceptance threshold. A valid existing value always wins outright.
package enrich

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/policyscope/policyscan/internal/config"
	"github.com/policyscope/policyscan/internal/model"
	"github.com/policyscope/policyscan/pkg/oracle"
)

// errEmptyText is returned when a field is asked to extract from blank text.
var errEmptyText = errors.New("enrich: empty policy text")

// Enricher extracts structured fields from policy text.
type Enricher struct {
	oracle oracle.Client
	cfg    config.EnrichConfig
}

// NewEnricher returns an Enricher. The oracle may be nil, which disables LLM
// fallback regardless of configuration.
func NewEnricher(client oracle.Client, cfg config.EnrichConfig) *Enricher {
	return &Enricher{oracle: client, cfg: cfg}
}

// llmEnabled reports whether the oracle should be consulted: the caller, the
// configuration, and the presence of a client must all agree.
func (e *Enricher) llmEnabled(useLLMFallback bool) bool {
	return useLLMFallback && e.cfg.EnableLLMFallback && e.oracle != nil
}

// askOracle sends truncated policy text to the oracle with a field-specific
// instruction. The cut point backs up to a rune boundary so the excerpt is
// always valid UTF-8.
func (e *Enricher) askOracle(ctx context.Context, instruction, text string) (string, error) {
	if e.cfg.MaxOracleChars > 0 && len(text) > e.cfg.MaxOracleChars {
		cut := e.cfg.MaxOracleChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return e.oracle.Ask(ctx, instruction, text)
}

// EnrichCompany runs all enabled field extractions against the policy text
// and returns a copy of the company with any newly extracted values set,
// plus per-field audit metadata. A field that fails is recorded in the
// metadata and does not affect the other fields.
func (e *Enricher) EnrichCompany(ctx context.Context, company model.Company, policyText string, useLLMFallback bool) (model.Company, model.EnrichmentMetadata, error) {
	meta := model.EnrichmentMetadata{
		ExtractedAt: time.Now().UTC(),
		Fields:      make(map[string]model.FieldOutcome),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	record := func(field string, outcome model.FieldOutcome, apply func(string)) {
		mu.Lock()
		defer mu.Unlock()
		meta.Fields[field] = outcome
		if apply != nil && outcome.Error == "" && !outcome.Retained && outcome.Value != "" {
			apply(outcome.Value)
		}
	}

	runField := func(field, current string, enrich func(context.Context) (*model.ExtractionResult, error), apply func(string)) {
		defer wg.Done()
		result, err := enrich(ctx)
		now := time.Now().UTC()
		switch {
		case err != nil:
			zap.L().Warn("field enrichment failed",
				zap.String("domain", company.Domain),
				zap.String("field", field),
				zap.Error(err),
			)
			record(field, model.FieldOutcome{Error: err.Error(), ExtractedAt: now}, nil)
		case result == nil:
			// Nothing found. A pre-existing value still gets an audit entry
			// marking it as retained, even when it failed validation and so
			// did not short-circuit the cascade.
			if current != "" {
				record(field, model.FieldOutcome{
					Value:       current,
					Source:      model.SourceFallback,
					Retained:    true,
					ExtractedAt: now,
				}, nil)
			}
		default:
			record(field, model.FieldOutcome{
				Value:       result.Value,
				Confidence:  result.Confidence,
				Source:      result.Source,
				Retained:    result.Source == model.SourceFallback,
				ExtractedAt: now,
			}, apply)
		}
	}

	enriched := company

	if e.cfg.ExtractEmails {
		wg.Add(1)
		go runField("email", company.Email, func(ctx context.Context) (*model.ExtractionResult, error) {
			return e.EnrichEmail(ctx, policyText, company.Email, useLLMFallback)
		}, func(v string) { enriched.Email = v })
	}

	if e.cfg.ExtractCountry {
		wg.Add(1)
		go runField("country", company.Country, func(ctx context.Context) (*model.ExtractionResult, error) {
			return e.EnrichCountry(ctx, policyText, company.Domain, company.Country, useLLMFallback)
		}, func(v string) { enriched.Country = v })
	}

	if e.cfg.ExtractDeleteLink {
		wg.Add(1)
		go runField("delete_link", company.DeleteLink, func(ctx context.Context) (*model.ExtractionResult, error) {
			return e.EnrichDeleteLink(ctx, policyText, company.DeleteLink, useLLMFallback)
		}, func(v string) { enriched.DeleteLink = v })
	}

	wg.Wait()
	return enriched, meta, nil
}
