package twitter

import (
	"net/http"

	stealth "github.com/anatolykoptev/go-stealth"
)

// defaultUserAgent is the fallback User-Agent when the profile has none.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// apiHeaders returns the base headers sent with every REST request.
// Authorization is added per request.
func apiHeaders(userAgent string) map[string]string {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	h := map[string]string{
		"user-agent":      userAgent,
		"accept":          "application/json",
		"accept-language": "en-US,en;q=0.9",
	}
	if ch := stealth.ClientHintsHeaders(userAgent); ch != nil {
		for k, v := range ch {
			h[k] = v
		}
	}
	return h
}

func setHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

// apiHeaderOrder is the header order for TLS fingerprint consistency.
var apiHeaderOrder = []string{
	"authorization",
	"content-type",
	"sec-ch-ua",
	"sec-ch-ua-mobile",
	"sec-ch-ua-platform",
	"user-agent",
	"accept",
	"accept-language",
	"accept-encoding",
}
