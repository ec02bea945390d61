package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/policyscope/policyscan/internal/model"
)

func TestScoreCandidate_Adjustments(t *testing.T) {
	cases := []struct {
		name    string
		url     string
		docType model.DocType
		base    float64
		want    float64
	}{
		{
			name:    "policies subdomain",
			url:     "https://policies.example.com/something",
			docType: model.DocTypePrivacy,
			base:    0.60,
			want:    0.85, // +0.25
		},
		{
			name:    "policies path",
			url:     "https://example.com/policies/cookies",
			docType: model.DocTypePrivacy,
			base:    0.60,
			want:    0.80, // +0.20
		},
		{
			name:    "legal path",
			url:     "https://example.com/legal/something",
			docType: model.DocTypeTerms,
			base:    0.60,
			want:    0.75, // +0.15
		},
		{
			name:    "canonical privacy path",
			url:     "https://example.com/privacy",
			docType: model.DocTypePrivacy,
			base:    0.60,
			want:    0.80, // +0.20 canonical
		},
		{
			name:    "canonical dpa path smaller bonus",
			url:     "https://example.com/dpa",
			docType: model.DocTypeDPA,
			base:    0.60,
			want:    0.75, // +0.15 canonical
		},
		{
			name:    "false positive fragment",
			url:     "https://example.com/finance/privacy-statement",
			docType: model.DocTypePrivacy,
			base:    0.80,
			want:    0.45, // -0.35
		},
		{
			name:    "sitemap artifact",
			url:     "https://example.com/privacy-sitemap.xml",
			docType: model.DocTypePrivacy,
			base:    0.85,
			want:    0.35, // -0.50 artifact
		},
		{
			name:    "sitemap path fragment stacks with artifact penalty",
			url:     "https://example.com/sitemap/privacy.xml",
			docType: model.DocTypePrivacy,
			base:    0.85,
			want:    0.0, // -0.35 fragment, -0.50 artifact, clamped at 0
		},
		{
			name:    "no adjustments",
			url:     "https://example.com/about/privacy-commitment",
			docType: model.DocTypePrivacy,
			base:    0.60,
			want:    0.60,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := scoreCandidate(tc.url, tc.docType, tc.base)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestScoreCandidate_ClampedBelowOne(t *testing.T) {
	// Stacked bonuses never reach 1.0; that score is reserved for verified
	// values.
	got := scoreCandidate("https://policies.example.com/policies/legal/privacy", model.DocTypePrivacy, 0.85)
	assert.LessOrEqual(t, got, 0.99)
}

func TestScoreCandidate_NeverNegative(t *testing.T) {
	got := scoreCandidate("https://example.com/finance/sitemap.xml", model.DocTypePrivacy, 0.10)
	assert.GreaterOrEqual(t, got, 0.0)
}
