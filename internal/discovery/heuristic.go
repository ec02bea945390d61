package discovery

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/policyscope/policyscan/internal/model"
)

// heuristicConfidence applies to all path-probe hits: a 200 on a
// conventional path proves the page exists but says nothing about whether
// it is the canonical policy location.
const heuristicConfidence = 0.60

// heuristicPaths are conventional policy page locations probed in order.
var heuristicPaths = []string{
	"/privacy",
	"/privacy-policy",
	"/privacy_policy",
	"/policies/privacy",
	"/policy/privacy",
	"/terms",
	"/terms-of-service",
	"/terms_of_service",
	"/tos",
	"/terms-of-use",
	"/policies/terms",
	"/policy/terms",
	"/legal",
	"/legal-notices",
	"/legal/privacy",
	"/data-privacy",
	"/data-protection",
	"/dpa",
	"/cookies",
	"/cookie-policy",
}

// discoverViaHeuristic probes conventional paths with HEAD requests, falling
// back to GET when HEAD is rejected. Probes are rate limited. The final URL
// after redirects is classified; a redirected probe is marked non-canonical.
func (d *Discoverer) discoverViaHeuristic(ctx context.Context) (map[model.DocType]model.DiscoveredPolicy, error) {
	policies := make(map[model.DocType]model.DiscoveredPolicy)

	for _, path := range heuristicPaths {
		if err := d.limiter.Wait(ctx); err != nil {
			return policies, nil // context cancelled; keep what we have
		}

		probeURL := d.resolve(path)
		finalURL, status, err := d.probe(ctx, probeURL)
		if err != nil {
			zap.L().Debug("heuristic probe failed",
				zap.String("url", probeURL),
				zap.Error(err),
			)
			continue
		}
		if status != http.StatusOK {
			continue
		}

		docType, ok := inferDocTypeFromURL(finalURL)
		if !ok {
			docType, ok = inferDocTypeFromURL(probeURL)
		}
		if !ok {
			continue
		}
		if _, exists := policies[docType]; exists {
			continue // uniform confidence: the first confirmed path wins
		}

		policies[docType] = model.DiscoveredPolicy{
			URL:           finalURL,
			DocType:       docType,
			DiscoveredVia: model.MethodHeuristic,
			Confidence:    heuristicConfidence,
			HTTPStatus:    status,
			IsCanonical:   finalURL == probeURL,
		}
	}

	return policies, nil
}

// probe issues a HEAD request, retrying as a body-discarding GET on 403/405
// (some servers reject HEAD outright). Returns the post-redirect URL.
func (d *Discoverer) probe(ctx context.Context, rawURL string) (finalURL string, status int, err error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	do := func(method string) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", d.ua)
		return d.client.Do(req)
	}

	resp, err := do(http.MethodHead)
	if err != nil {
		return "", 0, err
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusMethodNotAllowed {
		_ = resp.Body.Close()
		resp, err = do(http.MethodGet)
		if err != nil {
			return "", 0, err
		}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	return resp.Request.URL.String(), resp.StatusCode, nil
}
