package twitter

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	stealth "github.com/anatolykoptev/go-stealth"
)

// BrowserProfile pairs a User-Agent with its matching TLS fingerprint.
type BrowserProfile = stealth.BrowserProfile

// Credentials are the tokens of one Twitter developer app and the user
// account it acts for.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
	BearerToken    string
}

// HasUserContext reports whether OAuth 1.0a user-context signing is possible.
func (c Credentials) HasUserContext() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// SelfID returns the account id embedded in the access token
// ("<user id>-<random>"), or 0 if the token does not carry one.
func (c Credentials) SelfID() int64 {
	prefix, _, found := strings.Cut(c.AccessToken, "-")
	if !found {
		return 0
	}
	id, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// String masks every secret so credentials can be logged.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{consumer=%s access=%s bearer=%s}",
		mask(c.ConsumerKey), mask(c.AccessToken), mask(c.BearerToken))
}

func mask(s string) string {
	if s == "" {
		return "<empty>"
	}
	return s[:min(4, len(s))] + "***"
}

// ParseCredentials parses a colon-separated credential string.
// Format: "consumer_key:consumer_secret:access_token:access_secret" or
// "consumer_key:consumer_secret:access_token:access_secret:bearer_token".
// A bare bearer token ("::::bearer") is also accepted.
func ParseCredentials(raw string) (Credentials, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Credentials{}, ErrMissingCredentials
	}
	parts := strings.SplitN(raw, ":", 5)
	if len(parts) < 4 {
		slog.Warn("invalid credentials entry", slog.Int("fields", len(parts)))
		return Credentials{}, fmt.Errorf("ParseCredentials: want 4 or 5 fields, got %d: %w", len(parts), ErrMissingCredentials)
	}
	creds := Credentials{
		ConsumerKey:    parts[0],
		ConsumerSecret: parts[1],
		AccessToken:    parts[2],
		AccessSecret:   parts[3],
	}
	if len(parts) == 5 {
		creds.BearerToken = parts[4]
	}
	if !creds.HasUserContext() && creds.BearerToken == "" {
		return Credentials{}, fmt.Errorf("ParseCredentials: %w", ErrMissingCredentials)
	}
	return creds, nil
}

// DefaultBrowserProfile returns the first built-in stealth profile.
func DefaultBrowserProfile() BrowserProfile {
	return stealth.BuiltinProfiles[0]
}

// BrowserProfileAt picks a built-in profile by index, wrapping around.
func BrowserProfileAt(idx int) BrowserProfile {
	if idx < 0 {
		idx = -idx
	}
	return stealth.BuiltinProfiles[idx%len(stealth.BuiltinProfiles)]
}
