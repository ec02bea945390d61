// Package discovery locates the canonical policy page URLs (privacy, terms,
// dpa) for a domain. Four independent strategies generate scored candidates
// (sitemap crawl, footer link scan, heuristic path probing, and a full-page
// link-text scan) which are merged per document type by highest confidence.
// One strategy failing never aborts the others; discovery degrades to an
// empty result, not an error.
package discovery

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/policyscope/policyscan/internal/model"
)

// defaultMethods is the fixed strategy evaluation order. Later strategies
// only replace a kept candidate on strictly higher confidence, so the order
// makes merges deterministic.
var defaultMethods = []model.DiscoveryMethod{
	model.MethodSitemap,
	model.MethodFooter,
	model.MethodHeuristic,
	model.MethodLinkText,
}

// Discoverer finds policy pages for a single domain.
type Discoverer struct {
	baseURL   *url.URL
	client    *http.Client
	ua        string
	timeout   time.Duration
	methods   []model.DiscoveryMethod
	overrides Overrides
	limiter   *rate.Limiter // bounds heuristic path probes
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithHTTPClient replaces the HTTP client (tests inject httptest clients).
func WithHTTPClient(c *http.Client) Option {
	return func(d *Discoverer) { d.client = c }
}

// WithUserAgent sets the User-Agent header for all discovery fetches.
func WithUserAgent(ua string) Option {
	return func(d *Discoverer) { d.ua = ua }
}

// WithTimeout sets the per-request timeout for discovery fetches.
func WithTimeout(t time.Duration) Option {
	return func(d *Discoverer) { d.timeout = t }
}

// WithMethods restricts which strategies run. Order is ignored; strategies
// always merge in the fixed sitemap, footer, heuristic, link_text order.
func WithMethods(methods []model.DiscoveryMethod) Option {
	return func(d *Discoverer) {
		if len(methods) > 0 {
			d.methods = methods
		}
	}
}

// WithOverrides installs a domain override table.
func WithOverrides(o Overrides) Option {
	return func(d *Discoverer) { d.overrides = o }
}

// WithProbeRate bounds heuristic HEAD/GET probes per second.
func WithProbeRate(perSec float64) Option {
	return func(d *Discoverer) {
		if perSec > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

// NewDiscoverer creates a Discoverer for a bare or scheme-prefixed domain.
// The domain is normalized to an https origin before use.
func NewDiscoverer(domain string, opts ...Option) (*Discoverer, error) {
	base, err := normalizeDomain(domain)
	if err != nil {
		return nil, err
	}

	d := &Discoverer{
		baseURL:   base,
		client:    &http.Client{Timeout: 10 * time.Second},
		ua:        "Mozilla/5.0 (compatible; policyscan/1.0)",
		timeout:   10 * time.Second,
		methods:   defaultMethods,
		overrides: DefaultOverrides(),
		limiter:   rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// normalizeDomain reduces a domain string to a scheme+host origin URL.
func normalizeDomain(domain string) (*url.URL, error) {
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}
	parsed, err := url.Parse(domain)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: parse domain %q", domain)
	}
	if parsed.Host == "" {
		return nil, eris.Errorf("discovery: domain %q has no host", domain)
	}
	return &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}, nil
}

// Discover runs all configured strategies and merges candidates per document
// type. Overrides are inserted first at confidence 0.99 and never superseded.
// Running twice against identical fetched content yields identical output.
func (d *Discoverer) Discover(ctx context.Context) map[model.DocType]model.DiscoveredPolicy {
	discovered := make(map[model.DocType]model.DiscoveredPolicy)

	overrideHost := strings.TrimPrefix(strings.ToLower(d.baseURL.Host), "www.")
	override := d.overrides[overrideHost]
	for docType, overrideURL := range override {
		discovered[docType] = model.DiscoveredPolicy{
			URL:           overrideURL,
			DocType:       docType,
			DiscoveredVia: model.MethodOverride,
			Confidence:    overrideConfidence,
			IsCanonical:   true,
		}
	}

	// Strategies are independent: run them concurrently, collect into
	// per-strategy slots, then merge serially in the fixed order.
	results := make([]map[model.DocType]model.DiscoveredPolicy, len(defaultMethods))
	var wg sync.WaitGroup
	for i, method := range defaultMethods {
		if !d.methodEnabled(method) {
			continue
		}
		wg.Add(1)
		go func(slot int, method model.DiscoveryMethod) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					zap.L().Error("discovery strategy panicked",
						zap.String("method", string(method)),
						zap.Any("panic", r),
					)
				}
			}()

			policies, err := d.runStrategy(ctx, method)
			if err != nil {
				zap.L().Warn("discovery strategy failed",
					zap.String("domain", d.baseURL.Host),
					zap.String("method", string(method)),
					zap.Error(err),
				)
				return
			}
			results[slot] = policies
		}(i, method)
	}
	wg.Wait()

	for _, policies := range results {
		for docType, policy := range policies {
			if _, overridden := override[docType]; overridden {
				continue
			}
			if kept, ok := discovered[docType]; !ok || policy.Confidence > kept.Confidence {
				discovered[docType] = policy
			}
		}
	}

	zap.L().Info("policy discovery complete",
		zap.String("domain", d.baseURL.Host),
		zap.Int("discovered", len(discovered)),
	)
	return discovered
}

func (d *Discoverer) runStrategy(ctx context.Context, method model.DiscoveryMethod) (map[model.DocType]model.DiscoveredPolicy, error) {
	switch method {
	case model.MethodSitemap:
		return d.discoverViaSitemap(ctx)
	case model.MethodFooter:
		return d.discoverViaFooter(ctx)
	case model.MethodHeuristic:
		return d.discoverViaHeuristic(ctx)
	case model.MethodLinkText:
		return d.discoverViaLinkText(ctx)
	default:
		return nil, eris.Errorf("discovery: unknown method %q", method)
	}
}

func (d *Discoverer) methodEnabled(method model.DiscoveryMethod) bool {
	for _, m := range d.methods {
		if m == method {
			return true
		}
	}
	return false
}
