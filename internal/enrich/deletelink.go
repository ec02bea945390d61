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
	// deleteLinkAcceptThreshold gates oracle escalation.
	deleteLinkAcceptThreshold = 0.80

	// llmDeleteLinkConfidence is assigned to oracle-extracted links.
	llmDeleteLinkConfidence = 0.85
)

// deleteLinkSectionPatterns find URLs inside prose that describes data
// deletion or subject-access rights. Specificity of the surrounding language
// determines the base confidence. All matching runs on lower-cased text.
var deleteLinkSectionPatterns = []struct {
	re   *regexp.Regexp
	conf float64
}{
	// Explicit deletion/erasure/DSAR language.
	{regexp.MustCompile(`(?:data\s*(?:subject\s*)?access|dsar|sard|right to be forgotten|right to erasure|data deletion|data erasure|data removal)[\s\w-]*(?:form|request|portal|page|link|button|click here|visit|go to|at|:)[^\n]*?((?:https?://|www\.)[^\s)"']+)`), 0.95},

	// Privacy-request sections.
	{regexp.MustCompile(`(?:privacy|data|personal information)[\s\w-]*(?:request|access|delete|remove|erase|modify|update|correct)[\s\w-]*(?:form|request|portal|page|link|button|click here|visit|go to|at|:)[^\n]*?((?:https?://|www\.)[^\s)"']+)`), 0.85},

	// Generic contact/support sections that merely contain a URL.
	{regexp.MustCompile(`(?:contact|support|help|privacy|data)[\s\w-]*(?:form|request|portal|page|link|button|click here|visit|go to|at|:)[^\n]*?((?:https?://|www\.)[^\s)"']+)`), 0.70},
}

// deleteLinkButtonPatterns match call-to-action text and anchor markup. These
// carry fixed confidences and receive no path bonus.
var deleteLinkButtonPatterns = []struct {
	re   *regexp.Regexp
	conf float64
}{
	{regexp.MustCompile(`(?:click here|request access|download data|delete my data|right to be forgotten|right to erasure|data subject access request|dsar|sard)[^\n]*?((?:https?://|www\.)[^\s)"']+)`), 0.90},
	{regexp.MustCompile(`<a[^>]*?href=["']((?:https?://|www\.)[^"']+)["'][^>]*?>(?:[^<]*?(?:data|privacy|access|delete|remove|erase|forget|dsar|sard|gdpr|ccpa)[^<]*?)</a>`), 0.85},
}

// deleteLinkPathKeywords boost URLs whose path names a data-rights concept.
var deleteLinkPathKeywords = []string{
	"privacy", "data", "delete", "remove", "erasure",
	"request", "access", "dsar", "gdpr", "ccpa",
	"rights", "portability", "download", "export",
}

// ExtractDeleteLinks extracts data-deletion URLs from policy text. Section
// matches get a +0.1 bonus when the URL path itself names a data-rights
// concept. Results are deduplicated by URL and sorted by confidence
// descending.
func (e *Enricher) ExtractDeleteLinks(text string) []model.ExtractionResult {
	var results []model.ExtractionResult
	seen := make(map[string]struct{})
	textLower := strings.ToLower(text)

	for _, pattern := range deleteLinkSectionPatterns {
		for _, match := range pattern.re.FindAllStringSubmatch(textLower, -1) {
			url := coerceHTTPS(match[1])
			if _, dup := seen[url]; dup {
				continue
			}
			seen[url] = struct{}{}

			conf := pattern.conf
			if pathNamesDataRights(url) {
				conf += 0.1
			}
			results = append(results, model.ExtractionResult{
				Value:      url,
				Confidence: model.ClampConfidence(conf, 0, 0.99),
				Source:     model.SourcePattern,
			})
		}
	}

	for _, pattern := range deleteLinkButtonPatterns {
		for _, match := range pattern.re.FindAllStringSubmatch(textLower, -1) {
			url := coerceHTTPS(match[1])
			if _, dup := seen[url]; dup {
				continue
			}
			seen[url] = struct{}{}

			results = append(results, model.ExtractionResult{
				Value:      url,
				Confidence: pattern.conf,
				Source:     model.SourcePattern,
			})
		}
	}

	model.SortByConfidence(results)
	return results
}

// coerceHTTPS prefixes scheme-less www. URLs with https://.
func coerceHTTPS(url string) string {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "https://" + url
	}
	return url
}

// pathNamesDataRights reports whether the URL path, ignoring the query
// string, contains a data-rights keyword.
func pathNamesDataRights(url string) bool {
	path, _, _ := strings.Cut(strings.ToLower(url), "?")
	for _, kw := range deleteLinkPathKeywords {
		if strings.Contains(path, kw) {
			return true
		}
	}
	return false
}

const deleteLinkOracleInstruction = `You extract data deletion links from privacy policies. ` +
	`Find the URL where a user can request deletion of their personal data ` +
	`(a data subject access request form, deletion portal, or similar). ` +
	`Reply with only the URL, or "none" if no such link is present.`

// EnrichDeleteLink returns the best data-deletion URL for the text. A valid
// current value short-circuits at confidence 1.0.
func (e *Enricher) EnrichDeleteLink(ctx context.Context, text, current string, useLLMFallback bool) (*model.ExtractionResult, error) {
	if current != "" && IsValidURL(current) {
		return &model.ExtractionResult{
			Value:      current,
			Confidence: 1.0,
			Source:     model.SourceFallback,
		}, nil
	}

	if strings.TrimSpace(text) == "" {
		return nil, errEmptyText
	}

	results := e.ExtractDeleteLinks(text)
	if len(results) > 0 && results[0].Confidence >= deleteLinkAcceptThreshold {
		return &results[0], nil
	}

	if e.llmEnabled(useLLMFallback) {
		answer, err := e.askOracle(ctx, deleteLinkOracleInstruction, text)
		if err != nil {
			zap.L().Warn("oracle delete-link extraction failed", zap.Error(err))
		} else if !oracle.IsNoAnswer(answer) {
			url := coerceHTTPS(strings.TrimSpace(answer))
			if IsValidURL(url) {
				return &model.ExtractionResult{
					Value:      url,
					Confidence: llmDeleteLinkConfidence,
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
