package model

import "time"

// ScannedDocument records the scrape outcome for one discovered policy page.
type ScannedDocument struct {
	DocType   DocType `json:"doc_type"`
	URL       string  `json:"url"`
	Title     string  `json:"title,omitempty"`
	WordCount int     `json:"word_count,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// ScanResult is the full outcome of one company scan: what was discovered,
// what was scraped, and what the enrichment pass produced.
type ScanResult struct {
	RunID      string             `json:"run_id"`
	Company    Company            `json:"company"`
	Policies   []DiscoveredPolicy `json:"policies,omitempty"`
	Documents  []ScannedDocument  `json:"documents,omitempty"`
	Enrichment EnrichmentMetadata `json:"enrichment"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}
