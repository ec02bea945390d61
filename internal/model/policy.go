package model

// DocType classifies a discovered policy document.
type DocType string

const (
	DocTypePrivacy DocType = "privacy"
	DocTypeTerms   DocType = "terms"
	DocTypeDPA     DocType = "dpa"
)

// DocTypes lists all known document types in a stable order.
var DocTypes = []DocType{DocTypePrivacy, DocTypeTerms, DocTypeDPA}

// DiscoveryMethod identifies which strategy produced a discovered policy.
type DiscoveryMethod string

const (
	MethodSitemap   DiscoveryMethod = "sitemap"
	MethodFooter    DiscoveryMethod = "footer"
	MethodHeuristic DiscoveryMethod = "heuristic"
	MethodLinkText  DiscoveryMethod = "link_text"
	MethodOverride  DiscoveryMethod = "override"
)

// DiscoveredPolicy is one policy page found for a domain. At most one
// instance survives per DocType per discovery run; the merge keeps the
// highest-confidence candidate for each type.
type DiscoveredPolicy struct {
	URL           string          `json:"url"`
	DocType       DocType         `json:"doc_type"`
	DiscoveredVia DiscoveryMethod `json:"discovered_via"`
	Confidence    float64         `json:"confidence"`
	HTTPStatus    int             `json:"http_status,omitempty"`

	// IsCanonical is false when the URL was only reached via a redirect
	// from a guessed path. Caller hint, not used for ranking.
	IsCanonical bool `json:"is_canonical"`
}
