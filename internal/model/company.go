package model

import "time"

// Company represents a company record being enriched.
type Company struct {
	ID         int64  `json:"id,omitempty"`
	Domain     string `json:"domain"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Country    string `json:"country,omitempty"`
	DeleteLink string `json:"delete_link,omitempty"`
}

// FieldOutcome records what happened to a single field during one
// enrichment pass, including retained existing values and errors.
type FieldOutcome struct {
	Value       string    `json:"value,omitempty"`
	Confidence  float64   `json:"confidence,omitempty"`
	Source      Source    `json:"source,omitempty"`
	Retained    bool      `json:"retained,omitempty"` // existing value kept, nothing written
	Error       string    `json:"error,omitempty"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// EnrichmentMetadata is the per-company audit block produced alongside an
// enriched record.
type EnrichmentMetadata struct {
	ExtractedAt time.Time               `json:"extracted_at"`
	Fields      map[string]FieldOutcome `json:"fields"`
}

// FieldProvenance is one persisted audit row for a field enrichment attempt.
type FieldProvenance struct {
	ID         int64     `json:"id,omitempty"`
	RunID      string    `json:"run_id"`
	Domain     string    `json:"domain"`
	FieldKey   string    `json:"field_key"`
	Value      string    `json:"value,omitempty"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source,omitempty"`
	Retained   bool      `json:"retained"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
