package discovery

import (
	"net/url"
	"strings"

	"github.com/policyscope/policyscan/internal/model"
)

// urlKeywords classify a URL path by substring match, checked in the order
// privacy, terms, dpa. A URL matching none is discarded.
var urlKeywords = map[model.DocType][]string{
	model.DocTypePrivacy: {"privacy", "privacy-policy", "privacy_policy", "data-privacy", "data-protection", "cookie"},
	model.DocTypeTerms:   {"terms", "terms-of-service", "terms_of_service", "terms-of-use", "tos", "eula"},
	model.DocTypeDPA:     {"dpa", "data-processing", "data_processing", "processing", "processor"},
}

// linkTextKeywords classify an anchor by its visible text.
var linkTextKeywords = map[model.DocType][]string{
	model.DocTypePrivacy: {"privacy", "data protection", "gdpr", "privacy policy"},
	model.DocTypeTerms:   {"terms", "terms of service", "tos", "terms of use", "eula"},
	model.DocTypeDPA:     {"data processing", "dpa", "data agreement"},
}

// inferDocTypeFromURL maps a URL to a document type by path keywords.
func inferDocTypeFromURL(rawURL string) (model.DocType, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	path := strings.ToLower(parsed.Path)

	for _, docType := range model.DocTypes {
		for _, kw := range urlKeywords[docType] {
			if strings.Contains(path, kw) {
				return docType, true
			}
		}
	}
	return "", false
}

// matchLinkText reports which document types an anchor's visible text
// matches. A single link can match more than one type ("Privacy Terms").
func matchLinkText(text string) []model.DocType {
	text = strings.ToLower(text)

	var matched []model.DocType
	for _, docType := range model.DocTypes {
		for _, kw := range linkTextKeywords[docType] {
			if strings.Contains(text, kw) {
				matched = append(matched, docType)
				break
			}
		}
	}
	return matched
}

// isSitemapArtifact reports whether a URL is a sitemap or compressed index
// file rather than a content page.
func isSitemapArtifact(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	if strings.Contains(lower, ".xml") || strings.Contains(lower, ".gz") {
		return true
	}
	return strings.Contains(lower, "sitemap")
}
