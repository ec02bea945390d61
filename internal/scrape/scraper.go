// Package scrape fetches policy pages and reduces them to clean text for
// extraction. It is a collaborator of the discovery and enrichment engines:
// given a URL it returns cleaned text, a word count, and a title, or
// ErrContentTooShort when the page fails the minimum-content threshold.
package scrape

import (
	"context"

	"github.com/rotisserie/eris"
)

// Content holds a scraped page reduced to plaintext.
type Content struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
}

// ErrContentTooShort is returned when a page yields fewer words than the
// configured minimum. Callers treat this as "no usable content", not as a
// transport failure.
var ErrContentTooShort = eris.New("scrape: content below minimum word count")

// Scraper fetches a single URL and returns its cleaned content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Content, error)
}
