// Package store persists companies, discovered policies, and per-field
// enrichment provenance. Two backends exist: SQLite for single-host use and
// PostgreSQL for shared deployments.
package store

import (
	"context"

	"github.com/policyscope/policyscan/internal/model"
)

// CompanyFilter specifies criteria for listing companies.
type CompanyFilter struct {
	Country string `json:"country,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the scan pipeline. All writes
// use per-record upsert semantics so concurrent writers for the same company
// are safe.
type Store interface {
	// Companies
	UpsertCompany(ctx context.Context, company model.Company) (*model.Company, error)
	UpsertCompanies(ctx context.Context, companies []model.Company) error
	GetCompany(ctx context.Context, domain string) (*model.Company, error)
	ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error)

	// Discovered policies; at most one row per (domain, doc type).
	SaveDiscoveredPolicies(ctx context.Context, domain string, policies []model.DiscoveredPolicy) error
	GetDiscoveredPolicies(ctx context.Context, domain string) ([]model.DiscoveredPolicy, error)

	// Enrichment audit trail
	SaveFieldProvenance(ctx context.Context, rows []model.FieldProvenance) error
	ListFieldProvenance(ctx context.Context, runID string) ([]model.FieldProvenance, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
