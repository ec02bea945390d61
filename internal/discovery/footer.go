package discovery

import (
	"context"
	"strings"

	"github.com/policyscope/policyscan/internal/model"
)

// Footer link confidences. Link text containing the word "policy" is a
// stronger signal than a bare keyword like "terms".
const (
	footerPolicyConfidence  = 0.80
	footerGenericConfidence = 0.70
)

// discoverViaFooter fetches the homepage, locates a footer-like element, and
// classifies its links by visible text.
func (d *Discoverer) discoverViaFooter(ctx context.Context) (map[model.DocType]model.DiscoveredPolicy, error) {
	policies := make(map[model.DocType]model.DiscoveredPolicy)

	body, _, err := d.get(ctx, d.baseURL.String())
	if err != nil {
		return nil, err
	}
	doc, err := parseHTML(body)
	if err != nil {
		return nil, err
	}

	footer := findFooter(doc)
	if footer == nil {
		return policies, nil
	}

	for _, link := range collectAnchors(footer) {
		fullURL := d.resolve(link.href)
		if fullURL == "" {
			continue
		}

		for _, docType := range matchLinkText(link.text) {
			conf := footerGenericConfidence
			if strings.Contains(strings.ToLower(link.text), "policy") {
				conf = footerPolicyConfidence
			}
			if kept, exists := policies[docType]; exists && conf <= kept.Confidence {
				continue
			}
			policies[docType] = model.DiscoveredPolicy{
				URL:           fullURL,
				DocType:       docType,
				DiscoveredVia: model.MethodFooter,
				Confidence:    conf,
				IsCanonical:   true,
			}
		}
	}

	return policies, nil
}
