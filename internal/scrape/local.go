package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"

	"github.com/policyscope/policyscan/internal/resilience"
)

// LocalScraper fetches HTML via net/http, detects anti-bot blocks, and
// converts the page to plaintext.
type LocalScraper struct {
	client   *http.Client
	ua       string
	minWords int
	retry    resilience.RetryConfig
}

// LocalOption configures a LocalScraper.
type LocalOption func(*LocalScraper)

// WithUserAgent sets the User-Agent header for fetches.
func WithUserAgent(ua string) LocalOption {
	return func(l *LocalScraper) { l.ua = ua }
}

// WithMinWords sets the minimum word count below which pages are rejected.
func WithMinWords(n int) LocalOption {
	return func(l *LocalScraper) { l.minWords = n }
}

// WithTimeout sets the per-fetch HTTP timeout.
func WithTimeout(d time.Duration) LocalOption {
	return func(l *LocalScraper) { l.client.Timeout = d }
}

// WithRetry sets the retry policy for transient fetch failures.
func WithRetry(cfg resilience.RetryConfig) LocalOption {
	return func(l *LocalScraper) { l.retry = cfg }
}

// NewLocalScraper creates a LocalScraper with sensible defaults.
func NewLocalScraper(opts ...LocalOption) *LocalScraper {
	l := &LocalScraper{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		ua:       "Mozilla/5.0 (compatible; policyscan/1.0)",
		minWords: 500,
		retry:    resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Scrape fetches a URL, strips boilerplate HTML, and enforces the minimum
// word count. Transient fetch failures are retried with backoff; a page below
// the word threshold returns ErrContentTooShort.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Content, error) {
	body, err := resilience.DoVal(ctx, l.retry, func(ctx context.Context) ([]byte, error) {
		return l.fetch(ctx, targetURL)
	})
	if err != nil {
		return nil, err
	}

	title := extractTitle(body)
	text := norm.NFC.String(stripHTML(string(body)))
	words := len(strings.Fields(text))

	if words < l.minWords {
		return nil, eris.Wrapf(ErrContentTooShort, "scrape: %s yielded %d words", targetURL, words)
	}

	return &Content{
		URL:       targetURL,
		Title:     title,
		Text:      text,
		WordCount: words,
	}, nil
}

func (l *LocalScraper) fetch(ctx context.Context, targetURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: create request")
	}
	req.Header.Set("User-Agent", l.ua)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: read body")
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("scrape: blocked (%s)", blockType)
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("scrape: status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("scrape: status %d", resp.StatusCode)
	}

	return body, nil
}

var titleRe = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)

// extractTitle pulls the <title> from HTML.
func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if len(m) > 1 {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}

var (
	tagRe   = regexp.MustCompile(`<[^>]+>`)
	spaceRe = regexp.MustCompile(`[ \t]+`)
	nlRe    = regexp.MustCompile(`\n{3,}`)
)

// stripHTML removes script/style/nav blocks, strips tags, decodes common
// entities, and collapses whitespace.
func stripHTML(html string) string {
	for _, tag := range []string{"script", "style", "nav"} {
		re := regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
		html = re.ReplaceAllString(html, "")
	}

	html = tagRe.ReplaceAllString(html, " ")

	r := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	html = r.Replace(html)

	html = spaceRe.ReplaceAllString(html, " ")
	html = nlRe.ReplaceAllString(html, "\n\n")

	return strings.TrimSpace(html)
}
