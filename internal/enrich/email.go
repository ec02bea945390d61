package enrich

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/policyscope/policyscan/internal/model"
	"github.com/policyscope/policyscan/pkg/oracle"
)

// emailAcceptThreshold is the pattern confidence at or above which the best
// candidate is accepted without consulting the oracle.
const emailAcceptThreshold = 0.80

// llmEmailConfidence is assigned to oracle-extracted emails.
const llmEmailConfidence = 0.90

// emailPatterns is an ordered cascade from highest to lowest specificity.
// Role-specific privacy contacts rank above generic addresses, which rank
// above obfuscated forms.
var emailPatterns = []struct {
	re   *regexp.Regexp
	conf float64
}{
	// Privacy-role addresses, including common @-obfuscations.
	{regexp.MustCompile(`(?i)privacy[\s\-]*(?:@|at|\(at\)|\[at\]|&#x40;|%40)[\s\-]*([a-z0-9.-]+\.[a-z]{2,})`), 0.95},
	{regexp.MustCompile(`(?i)dpo[\s\-]*(?:@|at|\(at\)|\[at\]|&#x40;|%40)[\s\-]*([a-z0-9.-]+\.[a-z]{2,})`), 0.95},

	// Support/contact addresses.
	{regexp.MustCompile(`(?i)(?:contact|support|help|info)[\s\-]*(?:@|at|\(at\)|\[at\]|&#x40;|%40)[\s\-]*([a-z0-9.-]+\.[a-z]{2,})`), 0.90},

	// Generic user@domain, tolerating spacing around the separator.
	{regexp.MustCompile(`(?i)[a-z0-9._%+-]+(?:\s*@|\s*\[?\s*at\s*\]?\s*)[a-z0-9.-]+\.[a-z]{2,}`), 0.80},
	{regexp.MustCompile(`(?i)[a-z0-9._%+-]+\s*(?:\(at\)|\[at\]| at |@|&#x40;|%40)\s*[a-z0-9.-]+\.[a-z]{2,}`), 0.75},

	// Fully obfuscated "user at domain dot com" text.
	{regexp.MustCompile(`(?i)[a-z0-9._%+-]+\s*\[?\s*(?:at|dot)\s*\]?\s*[a-z0-9.-]+\s*\[?\s*(?:at|dot)\s*\]?\s*[a-z]{2,}`), 0.65},
}

var (
	// De-obfuscation replacements. Bare "at"/"dot" are word-bounded so a
	// domain like whatever.com is not mangled.
	emailAtRe      = regexp.MustCompile(`\s*(?:\(at\)|\[at\]|&#x40;|%40|@|\bat\b)\s*`)
	emailDotRe     = regexp.MustCompile(`\s*\bdot\b\s*`)
	emailBracketRe = regexp.MustCompile(`[\[\]()\\]`)
)

// freeMailPrefixes are consumer mail providers. An address on one of these is
// unlikely to be the company's own contact.
var freeMailPrefixes = []string{"gmail.", "yahoo.", "outlook.", "hotmail."}

// ExtractEmails extracts and validates emails from text. Results are
// deduplicated by normalized address and sorted by confidence descending;
// every returned value passes IsValidEmail.
func (e *Enricher) ExtractEmails(text string) []model.ExtractionResult {
	var results []model.ExtractionResult
	seen := make(map[string]struct{})

	for _, pattern := range emailPatterns {
		for _, match := range pattern.re.FindAllString(text, -1) {
			email := normalizeEmail(match)
			if !IsValidEmail(email) {
				continue
			}
			if _, dup := seen[email]; dup {
				continue
			}
			seen[email] = struct{}{}

			conf := pattern.conf + emailDomainAdjustment(email, text)
			results = append(results, model.ExtractionResult{
				Value:      email,
				Confidence: model.ClampConfidence(conf, 0.1, 1.0),
				Source:     model.SourcePattern,
			})
		}
	}

	model.SortByConfidence(results)
	return results
}

// normalizeEmail lower-cases a raw match, de-obfuscates @ and dot tokens,
// and strips residual brackets.
func normalizeEmail(raw string) string {
	email := strings.ToLower(raw)
	email = emailAtRe.ReplaceAllString(email, "@")
	email = emailDotRe.ReplaceAllString(email, ".")
	return emailBracketRe.ReplaceAllString(email, "")
}

// emailDomainAdjustment rewards addresses on a domain that appears elsewhere
// in the source text (likely the company's own) and penalizes free consumer
// providers.
func emailDomainAdjustment(email, text string) float64 {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return 0
	}
	domain := email[at+1:]

	for _, prefix := range freeMailPrefixes {
		if strings.HasPrefix(domain, prefix) {
			return -0.2
		}
	}

	domainRe, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(domain) + `\b`)
	if err == nil && len(domainRe.FindAllStringIndex(text, 2)) > 1 {
		// More than the email mention itself.
		return 0.1
	}
	return 0
}

// emailOracleInstruction is the role-specific task given to the LLM oracle.
const emailOracleInstruction = `You extract contact emails from privacy policies. ` +
	`Extract the most relevant contact email address from the provided text, ` +
	`preferring privacy-related contacts such as privacy@, dpo@, or legal@ addresses. ` +
	`Reply with only the email address, or "none" if no email is present.`

// EnrichEmail returns the best email for the text. A valid current value
// short-circuits at confidence 1.0; the oracle is consulted only when the
// best pattern result falls below the acceptance threshold.
func (e *Enricher) EnrichEmail(ctx context.Context, text, current string, useLLMFallback bool) (*model.ExtractionResult, error) {
	if current != "" && IsValidEmail(current) {
		return &model.ExtractionResult{
			Value:      strings.ToLower(current),
			Confidence: 1.0,
			Source:     model.SourceFallback,
		}, nil
	}

	if strings.TrimSpace(text) == "" {
		return nil, errEmptyText
	}

	results := e.ExtractEmails(text)
	if len(results) > 0 && results[0].Confidence >= emailAcceptThreshold {
		return &results[0], nil
	}

	if e.llmEnabled(useLLMFallback) {
		answer, err := e.askOracle(ctx, emailOracleInstruction, text)
		if err != nil {
			zap.L().Warn("oracle email extraction failed", zap.Error(err))
		} else if !oracle.IsNoAnswer(answer) {
			email := strings.ToLower(strings.TrimSpace(answer))
			if IsValidEmail(email) {
				return &model.ExtractionResult{
					Value:      email,
					Confidence: llmEmailConfidence,
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
