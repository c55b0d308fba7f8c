package twitter

import (
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected errorClass
	}{
		{"no errors", `{"data":{"id":"1"}}`, errNone},
		{"empty errors", `{"errors":[]}`, errNone},
		{"rate limited 88", `{"errors":[{"code":88}]}`, errRateLimited},
		{"suspended 64", `{"errors":[{"code":64}]}`, errSuspended},
		{"locked 326", `{"errors":[{"code":326}]}`, errLocked},
		{"auth expired 32", `{"errors":[{"code":32}]}`, errAuthExpired},
		{"invalid token 89", `{"errors":[{"code":89}]}`, errAuthExpired},
		{"blocked 161", `{"errors":[{"code":161}]}`, errBlocked},
		{"not authorized 179", `{"errors":[{"code":179}]}`, errNotAuthorized},
		{"not authorized 219", `{"errors":[{"code":219}]}`, errNotAuthorized},
		{"user not found 50", `{"errors":[{"code":50}]}`, errNotFound},
		{"internal 131", `{"errors":[{"code":131}]}`, errInternal},
		{"unknown code", `{"errors":[{"code":999}]}`, errNone},
		{"invalid json", `{invalid`, errNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifyError([]byte(tt.body))
			if result != tt.expected {
				t.Fatalf("classifyError(%s) = %s, want %s", tt.body, result, tt.expected)
			}
		})
	}
}

func TestParseRateLimitReset(t *testing.T) {
	ts := time.Now().Add(5 * time.Minute).Unix()
	result := parseRateLimitReset(strconv.FormatInt(ts, 10))
	if result.Unix() != ts {
		t.Fatalf("expected %d, got %d", ts, result.Unix())
	}

	// Empty
	result = parseRateLimitReset("")
	if time.Until(result) < 14*time.Minute {
		t.Fatal("expected ~15min fallback")
	}

	// Invalid
	result = parseRateLimitReset("not-a-number")
	if time.Until(result) < 14*time.Minute {
		t.Fatal("expected ~15min fallback for invalid input")
	}
}

func TestHTTPError_Is(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{400, ErrBadRequest},
		{401, ErrUnauthorized},
		{403, ErrForbidden},
		{404, ErrNotFound},
		{409, ErrConflict},
		{431, ErrFieldsTooLarge},
		{429, ErrTooManyRequests},
		{503, ErrServer},
	}
	for _, tt := range tests {
		err := fmt.Errorf("FetchUser: %w", newHTTPError("users", tt.status, []byte(`{"title":"x"}`), nil))
		if !errors.Is(err, tt.want) {
			t.Fatalf("status %d: expected errors.Is(%v)", tt.status, tt.want)
		}
		if tt.status != 404 && errors.Is(err, ErrNotFound) {
			t.Fatalf("status %d must not match ErrNotFound", tt.status)
		}
	}
}

func TestNewHTTPError_Body(t *testing.T) {
	e := newHTTPError("users/lookup", 429, []byte(`{"errors":[{"code":88,"message":"Rate limit exceeded"}]}`),
		map[string]string{"x-rate-limit-reset": "1700000000"})
	if e.Code != 88 || e.Message != "Rate limit exceeded" {
		t.Fatalf("unexpected code/message: %d %q", e.Code, e.Message)
	}
	if e.RateLimitReset.Unix() != 1700000000 {
		t.Fatalf("unexpected reset %v", e.RateLimitReset)
	}
	if e.Error() != "users/lookup HTTP 429 (code 88): Rate limit exceeded" {
		t.Fatalf("unexpected message %q", e.Error())
	}

	e = newHTTPError("tweets", 401, []byte(`{"title":"Unauthorized","detail":"Unauthorized","type":"about:blank","status":401}`), nil)
	if e.Message != "Unauthorized" {
		t.Fatalf("expected v2 title as message, got %q", e.Message)
	}

	e = newHTTPError("tweets", 502, []byte(`<html>bad gateway</html>`), nil)
	if e.Message != "<html>bad gateway</html>" {
		t.Fatalf("expected raw body, got %q", e.Message)
	}
}

func TestAPIError_Is(t *testing.T) {
	body := `{"errors":[{"value":"123","detail":"Could not find user with ids: [123].","title":"Not Found Error","resource_type":"user","type":"https://api.twitter.com/2/problems/resource-not-found"}]}`
	err := error(newAPIError("users", []byte(body)))
	if !errors.Is(err, ErrResourceNotFound) {
		t.Fatal("expected ErrResourceNotFound")
	}
	if errors.Is(err, ErrDisallowedResource) {
		t.Fatal("unexpected ErrDisallowedResource")
	}
	if err.Error() != "users: Could not find user with ids: [123]." {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if newAPIError("users", []byte(`{"data":{}}`)) != nil {
		t.Fatal("expected nil for body without errors")
	}
}

func TestUnrecognizedEventError(t *testing.T) {
	err := fmt.Errorf("classify: %w", &UnrecognizedEventError{Family: "follow_events", Type: "poke"})
	if !errors.Is(err, ErrUnrecognizedEventKind) {
		t.Fatal("expected ErrUnrecognizedEventKind")
	}
	var ue *UnrecognizedEventError
	if !errors.As(err, &ue) || ue.Type != "poke" {
		t.Fatal("expected *UnrecognizedEventError with type")
	}
}
