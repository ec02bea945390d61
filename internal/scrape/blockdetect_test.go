package scrape

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func respWithStatus(code int, headers map[string]string) *http.Response {
	resp := &http.Response{StatusCode: code, Header: make(http.Header)}
	for k, v := range headers {
		resp.Header.Set(k, v)
	}
	return resp
}

func TestDetectBlock(t *testing.T) {
	cases := []struct {
		name      string
		resp      *http.Response
		body      string
		blocked   bool
		blockType BlockType
	}{
		{
			name:      "cloudflare 403 with cf-ray",
			resp:      respWithStatus(403, map[string]string{"cf-ray": "abc123"}),
			blocked:   true,
			blockType: BlockCloudflare,
		},
		{
			name:      "cloudflare server header on 503",
			resp:      respWithStatus(503, map[string]string{"server": "cloudflare"}),
			blocked:   true,
			blockType: BlockCloudflare,
		},
		{
			name:      "challenge page body",
			resp:      respWithStatus(200, nil),
			body:      "<html>Checking your browser before accessing…</html>",
			blocked:   true,
			blockType: BlockCloudflare,
		},
		{
			name:      "captcha body",
			resp:      respWithStatus(200, nil),
			body:      "<html>please solve this reCAPTCHA</html>",
			blocked:   true,
			blockType: BlockCaptcha,
		},
		{
			name:      "small js shell",
			resp:      respWithStatus(200, nil),
			body:      `<html><noscript>This site requires JavaScript</noscript></html>`,
			blocked:   true,
			blockType: BlockJSShell,
		},
		{
			name:    "large page with noscript is fine",
			resp:    respWithStatus(200, nil),
			body:    `<html><noscript>JavaScript is off</noscript>` + strings.Repeat("policy text ", 500) + `</html>`,
			blocked: false,
		},
		{
			name:    "plain policy page",
			resp:    respWithStatus(200, nil),
			body:    "<html><body>We respect your privacy.</body></html>",
			blocked: false,
		},
		{
			name:    "403 without cloudflare headers",
			resp:    respWithStatus(403, nil),
			body:    "Forbidden",
			blocked: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			blocked, blockType := DetectBlock(tc.resp, []byte(tc.body))
			assert.Equal(t, tc.blocked, blocked)
			if tc.blocked {
				assert.Equal(t, tc.blockType, blockType)
			}
		})
	}
}

func TestDetectBlock_NilResponse(t *testing.T) {
	blocked, _ := DetectBlock(nil, nil)
	assert.False(t, blocked)
}
