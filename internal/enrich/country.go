package enrich

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/policyscope/policyscan/internal/model"
	"github.com/policyscope/policyscan/pkg/oracle"
)

const (
	// tldConfidence applies to a country-code TLD match, the highest
	// priority signal.
	tldConfidence = 0.95

	// bareCodeConfidence applies to standalone two-letter ISO codes found
	// in text ("based in DE").
	bareCodeConfidence = 0.80

	// countryAcceptThreshold gates oracle escalation.
	countryAcceptThreshold = 0.85

	// llmCountryConfidence sits just below pattern matching.
	llmCountryConfidence = 0.85
)

// bareCodeRe finds standalone two-letter uppercase tokens.
//
// TODO: this can false-positive on incidental capitalized acronyms (a bare
// "IT" department mention reads as Italy); needs a product decision on an
// acronym stoplist before filtering here.
var bareCodeRe = regexp.MustCompile(`\b([A-Z]{2})\b`)

// ExtractCountries extracts country candidates from text and the domain TLD.
// A TLD match has the highest priority and suppresses the weaker text match
// for the same country. Results are deduplicated by code and sorted by
// confidence descending.
func (e *Enricher) ExtractCountries(text, domain string) []model.ExtractionResult {
	var results []model.ExtractionResult
	seen := make(map[string]struct{})
	textLower := strings.ToLower(text)

	// Domain TLD first.
	if tld := domainTLD(domain); tld != "" {
		for _, c := range countryTable {
			if c.tld == tld {
				results = append(results, model.ExtractionResult{
					Value:      c.code,
					Confidence: tldConfidence,
					Source:     model.SourceTLD,
				})
				seen[c.code] = struct{}{}
			}
		}
	}

	// Country names and adjectives in text.
	for _, c := range countryTable {
		if _, dup := seen[c.code]; dup {
			continue
		}

		nameHit := matchesAnyWord(textLower, c.names)
		adjHit := matchesAnyWord(textLower, c.adjectives)
		if !nameHit && !adjHit {
			continue
		}

		conf := c.confidence
		if nameHit && adjHit {
			conf += 0.05
		}
		results = append(results, model.ExtractionResult{
			Value:      c.code,
			Confidence: model.ClampConfidence(conf, 0, 0.99), // stay below a TLD match
			Source:     model.SourcePattern,
		})
		seen[c.code] = struct{}{}
	}

	// Bare ISO codes ("based in DE").
	for _, match := range bareCodeRe.FindAllStringSubmatch(text, -1) {
		code := match[1]
		if _, dup := seen[code]; dup {
			continue
		}
		if _, known := countryByCode[code]; !known || !IsValidCountryCode(code) {
			continue
		}
		results = append(results, model.ExtractionResult{
			Value:      code,
			Confidence: bareCodeConfidence,
			Source:     model.SourcePattern,
		})
		seen[code] = struct{}{}
	}

	model.SortByConfidence(results)
	return results
}

// domainTLD returns the lower-cased final label of a domain, or "".
func domainTLD(domain string) string {
	domain = strings.TrimSuffix(strings.ToLower(domain), ".")
	if i := strings.LastIndex(domain, "."); i >= 0 && i < len(domain)-1 {
		return domain[i+1:]
	}
	return ""
}

// matchesAnyWord reports whether any term occurs word-bounded in text.
func matchesAnyWord(textLower string, terms []string) bool {
	for _, term := range terms {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(strings.ToLower(term)) + `\b`)
		if err == nil && re.MatchString(textLower) {
			return true
		}
	}
	return false
}

const countryOracleInstruction = `You extract country information from text. ` +
	`Determine the primary country mentioned: the country of incorporation, ` +
	`headquarters, or main jurisdiction. Reply with only the ISO 3166-1 alpha-2 ` +
	`country code, or "none" if no country can be determined.`

// EnrichCountry returns the best country code for the text and domain. A
// valid current value short-circuits at confidence 1.0.
func (e *Enricher) EnrichCountry(ctx context.Context, text, domain, current string, useLLMFallback bool) (*model.ExtractionResult, error) {
	if current != "" && IsValidCountryCode(current) {
		return &model.ExtractionResult{
			Value:      strings.ToUpper(current),
			Confidence: 1.0,
			Source:     model.SourceFallback,
		}, nil
	}

	if strings.TrimSpace(text) == "" {
		return nil, errEmptyText
	}

	results := e.ExtractCountries(text, domain)
	if len(results) > 0 && results[0].Confidence >= countryAcceptThreshold {
		return &results[0], nil
	}

	if e.llmEnabled(useLLMFallback) {
		answer, err := e.askOracle(ctx, countryOracleInstruction, text)
		if err != nil {
			zap.L().Warn("oracle country extraction failed", zap.Error(err))
		} else if !oracle.IsNoAnswer(answer) {
			code := strings.ToUpper(strings.TrimSpace(answer))
			if IsValidCountryCode(code) {
				return &model.ExtractionResult{
					Value:      code,
					Confidence: llmCountryConfidence,
					Source:     model.SourceLLM,
				}, nil
			}
		}
	}

	if len(results) > 0 {
		return &results[0], nil
	}
	return nil, nil
}
