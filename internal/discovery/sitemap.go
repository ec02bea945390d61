package discovery

import (
	"context"
	"encoding/xml"
	"strings"

	"go.uber.org/zap"

	"github.com/policyscope/policyscan/internal/model"
)

// sitemapBaseConfidence is the base score for sitemap-discovered URLs, the
// strongest heuristic signal: sitemaps enumerate real, indexed content.
const sitemapBaseConfidence = 0.85

type sitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// discoverViaSitemap reads robots.txt for Sitemap directives, unions them
// with the conventional sitemap locations, and classifies every leaf URL.
// A sitemap index is followed exactly one level deep, which bounds the
// worst-case fetch count.
func (d *Discoverer) discoverViaSitemap(ctx context.Context) (map[model.DocType]model.DiscoveredPolicy, error) {
	policies := make(map[model.DocType]model.DiscoveredPolicy)

	sitemapURLs := d.sitemapLocations(ctx)

	for _, sitemapURL := range sitemapURLs {
		body, _, err := d.get(ctx, sitemapURL)
		if err != nil {
			zap.L().Debug("sitemap fetch failed",
				zap.String("url", sitemapURL),
				zap.Error(err),
			)
			continue
		}

		var idx sitemapIndex
		if xml.Unmarshal(body, &idx) == nil && len(idx.Sitemaps) > 0 {
			// Index document: follow each child once, no deeper recursion.
			for _, child := range idx.Sitemaps {
				childURL := strings.TrimSpace(child.Loc)
				childBody, _, err := d.get(ctx, childURL)
				if err != nil {
					zap.L().Debug("nested sitemap fetch failed",
						zap.String("url", childURL),
						zap.Error(err),
					)
					continue
				}
				d.collectSitemapLeaves(childBody, policies)
			}
			continue
		}

		d.collectSitemapLeaves(body, policies)
	}

	return policies, nil
}

// sitemapLocations returns sitemap URLs from robots.txt directives plus the
// conventional locations.
func (d *Discoverer) sitemapLocations(ctx context.Context) []string {
	var locations []string

	robotsBody, _, err := d.get(ctx, d.resolve("/robots.txt"))
	if err == nil {
		for _, line := range strings.Split(string(robotsBody), "\n") {
			if rest, ok := strings.CutPrefix(strings.ToLower(line), "sitemap:"); ok {
				// Re-slice the original line to preserve URL casing.
				loc := strings.TrimSpace(line[len(line)-len(rest):])
				if loc != "" {
					locations = append(locations, loc)
				}
			}
		}
	}

	return append(locations,
		d.resolve("/sitemap.xml"),
		d.resolve("/sitemap_index.xml"),
	)
}

// collectSitemapLeaves classifies and scores each leaf URL in a urlset,
// keeping the highest-confidence candidate per document type.
func (d *Discoverer) collectSitemapLeaves(body []byte, policies map[model.DocType]model.DiscoveredPolicy) {
	var leaves urlSet
	if err := xml.Unmarshal(body, &leaves); err != nil {
		return
	}

	for _, entry := range leaves.URLs {
		leafURL := strings.TrimSpace(entry.Loc)
		if leafURL == "" || isSitemapArtifact(leafURL) {
			continue
		}
		docType, ok := inferDocTypeFromURL(leafURL)
		if !ok {
			continue
		}

		conf := scoreCandidate(leafURL, docType, sitemapBaseConfidence)
		if kept, exists := policies[docType]; exists && conf <= kept.Confidence {
			continue
		}
		policies[docType] = model.DiscoveredPolicy{
			URL:           leafURL,
			DocType:       docType,
			DiscoveredVia: model.MethodSitemap,
			Confidence:    conf,
			IsCanonical:   true,
		}
	}
}
