package discovery

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
)

// maxFetchBytes caps how much of any single discovery fetch is read.
const maxFetchBytes = 4 * 1024 * 1024

// get fetches a URL with the discovery timeout and returns the body and
// status code. Non-2xx responses return the status with an error.
func (d *Discoverer) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "discovery: create request %s", rawURL)
	}
	req.Header.Set("User-Agent", d.ua)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "discovery: fetch %s", rawURL)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, resp.StatusCode, eris.Wrapf(err, "discovery: read %s", rawURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, resp.StatusCode, eris.Errorf("discovery: %s returned %d", rawURL, resp.StatusCode)
	}
	return body, resp.StatusCode, nil
}

// resolve joins a possibly-relative href against the domain origin.
func (d *Discoverer) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return d.baseURL.ResolveReference(ref).String()
}
