package discovery

import (
	"net/url"
	"strings"

	"github.com/policyscope/policyscan/internal/model"
)

// canonicalPaths are short, likely-canonical locations per document type.
// An exact match earns a scoring bonus.
var canonicalPaths = map[model.DocType]struct {
	paths []string
	bonus float64
}{
	model.DocTypePrivacy: {[]string{"/privacy", "/privacy-policy", "/privacy_policy"}, 0.20},
	model.DocTypeTerms:   {[]string{"/terms", "/terms-of-service", "/terms_of_service", "/tos"}, 0.20},
	model.DocTypeDPA:     {[]string{"/dpa", "/data-processing", "/data_processing"}, 0.15},
}

// falsePositiveFragments are path fragments that regularly classify as
// policies but never are (financial pages, press assets, index files).
var falsePositiveFragments = []string{"/finance/", "/quote/", "/whitepaper", "/photos/", "/sitemap"}

// scoreCandidate starts from a strategy's base confidence and applies
// additive adjustments from the URL's shape. The result is clamped to
// [0, 0.99]; 1.0 is reserved for verified values.
func scoreCandidate(rawURL string, docType model.DocType, base float64) float64 {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.ClampConfidence(base, 0, 0.99)
	}
	host := strings.ToLower(parsed.Host)
	path := strings.ToLower(parsed.Path)

	score := base

	// Canonical policy locations.
	if strings.HasPrefix(host, "policies.") {
		score += 0.25
	}
	if strings.Contains(path, "/policies/") || strings.HasPrefix(path, "/policies") {
		score += 0.20
	}
	if strings.Contains(path, "/legal") {
		score += 0.15
	}

	if canonical, ok := canonicalPaths[docType]; ok {
		trimmed := strings.TrimRight(path, "/")
		for _, p := range canonical.paths {
			if trimmed == p {
				score += canonical.bonus
				break
			}
		}
	}

	// Known false positives.
	for _, bad := range falsePositiveFragments {
		if strings.Contains(path, bad) {
			score -= 0.35
			break
		}
	}
	if isSitemapArtifact(rawURL) {
		score -= 0.50
	}

	return model.ClampConfidence(score, 0, 0.99)
}
