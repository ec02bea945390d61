package discovery

import (
	"context"

	"github.com/policyscope/policyscan/internal/model"
)

// linkTextConfidence applies to matches anywhere on the page. Weaker than a
// footer match (policy links conventionally live in footers) but stronger
// than a blind path probe.
const linkTextConfidence = 0.75

// discoverViaLinkText scans every anchor on the homepage, not just the
// footer, classifying by visible link text.
func (d *Discoverer) discoverViaLinkText(ctx context.Context) (map[model.DocType]model.DiscoveredPolicy, error) {
	policies := make(map[model.DocType]model.DiscoveredPolicy)

	body, _, err := d.get(ctx, d.baseURL.String())
	if err != nil {
		return nil, err
	}
	doc, err := parseHTML(body)
	if err != nil {
		return nil, err
	}

	for _, link := range collectAnchors(doc) {
		if link.text == "" {
			continue
		}
		fullURL := d.resolve(link.href)
		if fullURL == "" {
			continue
		}

		for _, docType := range matchLinkText(link.text) {
			if _, exists := policies[docType]; exists {
				continue // first match wins, confidence is uniform
			}
			policies[docType] = model.DiscoveredPolicy{
				URL:           fullURL,
				DocType:       docType,
				DiscoveredVia: model.MethodLinkText,
				Confidence:    linkTextConfidence,
				IsCanonical:   true,
			}
		}
	}

	return policies, nil
}
