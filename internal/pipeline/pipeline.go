// Package pipeline sequences a full company scan: policy URL discovery,
// document scraping, field enrichment, and persistence. Companies are
// processed sequentially; the documents of one company are processed
// concurrently, and a failure in any stage degrades that stage rather than
// aborting the scan.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/policyscope/policyscan/internal/config"
	"github.com/policyscope/policyscan/internal/discovery"
	"github.com/policyscope/policyscan/internal/enrich"
	"github.com/policyscope/policyscan/internal/model"
	"github.com/policyscope/policyscan/internal/scrape"
	"github.com/policyscope/policyscan/internal/store"
)

// Pipeline orchestrates discovery, scraping, enrichment, and persistence for
// company scans.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	scraper  scrape.Scraper
	enricher *enrich.Enricher

	// newDiscoverer is swappable so tests can inject httptest-backed
	// discoverers.
	newDiscoverer func(domain string) (*discovery.Discoverer, error)
}

// New creates a Pipeline with all dependencies. The store may be nil, in
// which case results are returned but not persisted.
func New(cfg *config.Config, st store.Store, scraper scrape.Scraper, enricher *enrich.Enricher) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		store:    st,
		scraper:  scraper,
		enricher: enricher,
	}
	p.newDiscoverer = p.defaultDiscoverer
	return p
}

func (p *Pipeline) defaultDiscoverer(domain string) (*discovery.Discoverer, error) {
	methods := make([]model.DiscoveryMethod, 0, len(p.cfg.Discovery.Methods))
	for _, m := range p.cfg.Discovery.Methods {
		methods = append(methods, model.DiscoveryMethod(m))
	}

	opts := []discovery.Option{
		discovery.WithUserAgent(p.cfg.Scrape.UserAgent),
		discovery.WithTimeout(time.Duration(p.cfg.Discovery.TimeoutSecs) * time.Second),
		discovery.WithMethods(methods),
		discovery.WithProbeRate(p.cfg.Discovery.ProbesPerSec),
	}
	if p.cfg.Discovery.OverridesFile != "" {
		overrides, err := discovery.LoadOverrides(p.cfg.Discovery.OverridesFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, discovery.WithOverrides(overrides))
	}
	return discovery.NewDiscoverer(domain, opts...)
}

// Discover runs policy URL discovery for a domain without scraping or
// persisting anything. Results are returned in stable document-type order.
func (p *Pipeline) Discover(ctx context.Context, domain string) ([]model.DiscoveredPolicy, error) {
	d, err := p.newDiscoverer(domain)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: discoverer for %s", domain)
	}

	discovered := d.Discover(ctx)
	policies := make([]model.DiscoveredPolicy, 0, len(discovered))
	for _, docType := range model.DocTypes {
		if policy, ok := discovered[docType]; ok {
			policies = append(policies, policy)
		}
	}
	return policies, nil
}

// ProcessCompany runs one full scan for a company.
func (p *Pipeline) ProcessCompany(ctx context.Context, company model.Company) (*model.ScanResult, error) {
	log := zap.L().With(zap.String("domain", company.Domain))
	log.Info("scan: starting")

	result := &model.ScanResult{
		RunID:     uuid.New().String(),
		Company:   company,
		StartedAt: time.Now().UTC(),
	}

	// Discovery. An empty result is valid; only a malformed domain is an
	// error.
	policies, err := p.Discover(ctx, company.Domain)
	if err != nil {
		return nil, err
	}
	result.Policies = policies

	// Scrape all discovered documents concurrently. One document failing is
	// recorded and does not affect the others.
	texts := p.scrapeDocuments(ctx, result)

	// Enrichment reads the privacy policy; other document types are a
	// fallback when no privacy page was found.
	policyText := texts[model.DocTypePrivacy]
	if policyText == "" {
		for _, docType := range model.DocTypes {
			if texts[docType] != "" {
				policyText = texts[docType]
				break
			}
		}
	}

	if policyText != "" && p.enricher != nil {
		enriched, meta, err := p.enricher.EnrichCompany(ctx, company, policyText, true)
		if err != nil {
			log.Warn("scan: enrichment failed", zap.Error(err))
		} else {
			result.Company = enriched
			result.Enrichment = meta
		}
	}

	result.FinishedAt = time.Now().UTC()

	if err := p.persist(ctx, result); err != nil {
		log.Warn("scan: persist failed", zap.Error(err))
	}

	log.Info("scan: complete",
		zap.Int("policies", len(result.Policies)),
		zap.Int("fields", len(result.Enrichment.Fields)),
	)
	return result, nil
}

// scrapeDocuments fetches every discovered policy concurrently and returns
// the cleaned text per document type.
func (p *Pipeline) scrapeDocuments(ctx context.Context, result *model.ScanResult) map[model.DocType]string {
	texts := make(map[model.DocType]string, len(result.Policies))
	if p.scraper == nil || len(result.Policies) == 0 {
		return texts
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, policy := range result.Policies {
		g.Go(func() error {
			doc := model.ScannedDocument{DocType: policy.DocType, URL: policy.URL}
			content, err := p.scraper.Scrape(ctx, policy.URL)
			if err != nil {
				doc.Error = err.Error()
				zap.L().Warn("scan: scrape failed",
					zap.String("url", policy.URL),
					zap.String("doc_type", string(policy.DocType)),
					zap.Error(err),
				)
			} else {
				doc.Title = content.Title
				doc.WordCount = content.WordCount
			}

			mu.Lock()
			defer mu.Unlock()
			result.Documents = append(result.Documents, doc)
			if err == nil {
				texts[policy.DocType] = content.Text
			}
			// Scrape failures are recorded per document, never propagated.
			return nil
		})
	}
	_ = g.Wait()

	return texts
}

// persist upserts the company and writes policies plus the per-field audit
// trail. Persistence is best-effort; the scan result is already complete.
func (p *Pipeline) persist(ctx context.Context, result *model.ScanResult) error {
	if p.store == nil {
		return nil
	}

	saved, err := p.store.UpsertCompany(ctx, result.Company)
	if err != nil {
		return err
	}
	result.Company.ID = saved.ID

	if err := p.store.SaveDiscoveredPolicies(ctx, result.Company.Domain, result.Policies); err != nil {
		return err
	}

	var provRows []model.FieldProvenance
	for fieldKey, outcome := range result.Enrichment.Fields {
		provRows = append(provRows, model.FieldProvenance{
			RunID:      result.RunID,
			Domain:     result.Company.Domain,
			FieldKey:   fieldKey,
			Value:      outcome.Value,
			Confidence: outcome.Confidence,
			Source:     string(outcome.Source),
			Retained:   outcome.Retained,
			Error:      outcome.Error,
			CreatedAt:  outcome.ExtractedAt,
		})
	}
	return p.store.SaveFieldProvenance(ctx, provRows)
}

// ProcessCompanies scans companies sequentially. A failed company is logged
// and skipped; the batch continues.
func (p *Pipeline) ProcessCompanies(ctx context.Context, companies []model.Company) []model.ScanResult {
	results := make([]model.ScanResult, 0, len(companies))
	for _, company := range companies {
		if ctx.Err() != nil {
			zap.L().Warn("scan batch: context cancelled",
				zap.Int("processed", len(results)),
				zap.Int("total", len(companies)),
			)
			break
		}

		result, err := p.ProcessCompany(ctx, company)
		if err != nil {
			zap.L().Error("scan batch: company failed",
				zap.String("domain", company.Domain),
				zap.Error(err),
			)
			continue
		}
		results = append(results, *result)
	}
	return results
}
