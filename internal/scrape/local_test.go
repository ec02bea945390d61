package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyscope/policyscan/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}
}

func policyPage(words int) string {
	return fmt.Sprintf(
		"<html><head><title>Privacy Policy</title></head><body><p>%s</p></body></html>",
		strings.TrimSpace(strings.Repeat("we process personal data responsibly ", words/5+1)),
	)
}

func TestScrape_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, policyPage(600))
	}))
	defer server.Close()

	s := NewLocalScraper(WithMinWords(100), WithRetry(fastRetry()))
	content, err := s.Scrape(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, server.URL, content.URL)
	assert.Equal(t, "Privacy Policy", content.Title)
	assert.GreaterOrEqual(t, content.WordCount, 100)
	assert.Contains(t, content.Text, "personal data")
	assert.NotContains(t, content.Text, "<p>")
}

func TestScrape_ContentTooShort(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>almost nothing</body></html>")
	}))
	defer server.Close()

	s := NewLocalScraper(WithMinWords(50), WithRetry(fastRetry()))
	_, err := s.Scrape(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrContentTooShort)
}

func TestScrape_RetriesTransientStatus(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, policyPage(600))
	}))
	defer server.Close()

	s := NewLocalScraper(WithMinWords(100), WithRetry(fastRetry()))
	content, err := s.Scrape(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, "Privacy Policy", content.Title)
}

func TestScrape_PermanentStatusNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	s := NewLocalScraper(WithMinWords(100), WithRetry(fastRetry()))
	_, err := s.Scrape(context.Background(), server.URL)

	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestScrape_BlockedPageNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "<html><body>Please complete the reCAPTCHA to continue.</body></html>")
	}))
	defer server.Close()

	s := NewLocalScraper(WithMinWords(10), WithRetry(fastRetry()))
	_, err := s.Scrape(context.Background(), server.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
	assert.Equal(t, int32(1), hits.Load())
}

func TestScrape_SendsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, policyPage(600))
	}))
	defer server.Close()

	s := NewLocalScraper(WithMinWords(100), WithUserAgent("policyscan-test/1.0"), WithRetry(fastRetry()))
	_, err := s.Scrape(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "policyscan-test/1.0", gotUA)
}

func TestStripHTML(t *testing.T) {
	html := `<html><head>
<script>var tracking = true;</script>
<style>body { color: red; }</style>
</head><body>
<nav><a href="/">Home</a></nav>
<p>Your data &amp; privacy matter. Email us at privacy&#39;s desk.</p>
</body></html>`

	text := stripHTML(html)
	assert.Contains(t, text, "Your data & privacy matter")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Home")
	assert.NotContains(t, text, "<p>")
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Privacy Policy",
		extractTitle([]byte(`<html><head><title> Privacy Policy </title></head></html>`)))
	assert.Equal(t, "Terms",
		extractTitle([]byte(`<TITLE>Terms</TITLE>`)))
	assert.Empty(t, extractTitle([]byte(`<html><body>no title</body></html>`)))
}
