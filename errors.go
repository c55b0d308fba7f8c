package twitter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go-twitter-api/pagination"
)

var (
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrFieldsTooLarge  = errors.New("request header fields too large")
	ErrTooManyRequests = errors.New("too many requests")
	ErrServer          = errors.New("twitter server error")

	ErrResourceNotFound        = errors.New("resource not found")
	ErrUnauthorizedForResource = errors.New("not authorized for resource")
	ErrDisallowedResource      = errors.New("disallowed resource")

	ErrMissingCredentials    = errors.New("missing credentials")
	ErrUnrecognizedEventKind = errors.New("unrecognized event kind")

	// ErrNoPageAvailable is returned by cursors stepped past either end.
	ErrNoPageAvailable = pagination.ErrNoPageAvailable
)

// errorClass categorizes Twitter API error codes for targeted handling.
type errorClass int

const (
	errNone          errorClass = iota
	errRateLimited              // 88: rate limit exceeded
	errSuspended                // 64: account suspended
	errLocked                   // 326: account locked
	errAuthExpired              // 32, 89: could not authenticate / invalid token
	errBlocked                  // 161: blocked from performing action
	errNotAuthorized            // 179, 219: not authorized
	errNotFound                 // 34, 50, 144: no such page, user or status
	errInternal                 // 131: Twitter internal error
)

func (c errorClass) String() string {
	switch c {
	case errRateLimited:
		return "rate_limited"
	case errSuspended:
		return "suspended"
	case errLocked:
		return "locked"
	case errAuthExpired:
		return "auth_expired"
	case errBlocked:
		return "blocked"
	case errNotAuthorized:
		return "not_authorized"
	case errNotFound:
		return "not_found"
	case errInternal:
		return "internal"
	}
	return "none"
}

// apiErrorBody is the error envelope shared by v1.1 and v2.
type apiErrorBody struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Title   string `json:"title"`
		Type    string `json:"type"`
		Value   any    `json:"value"`
	} `json:"errors"`
	Error  string `json:"error"`
	Detail string `json:"detail"`
	Title  string `json:"title"`
}

// classifyError inspects a response body for known Twitter error codes.
func classifyError(body []byte) errorClass {
	var errResp apiErrorBody
	if json.Unmarshal(body, &errResp) != nil || len(errResp.Errors) == 0 {
		return errNone
	}

	for _, e := range errResp.Errors {
		switch e.Code {
		case 88:
			return errRateLimited
		case 64:
			return errSuspended
		case 326:
			return errLocked
		case 32, 89:
			return errAuthExpired
		case 161:
			return errBlocked
		case 179, 219:
			return errNotAuthorized
		case 34, 50, 144:
			return errNotFound
		case 131:
			return errInternal
		}
	}
	return errNone
}

// HTTPError is returned for every non-2xx response.
type HTTPError struct {
	Endpoint string
	Status   int
	Code     int
	Message  string
	Detail   string
	Class    errorClass

	// RateLimitReset is set on 429 responses.
	RateLimitReset time.Time
}

func newHTTPError(endpoint string, status int, body []byte, headers map[string]string) *HTTPError {
	e := &HTTPError{
		Endpoint: endpoint,
		Status:   status,
		Class:    classifyError(body),
	}
	var errResp apiErrorBody
	if json.Unmarshal(body, &errResp) == nil {
		switch {
		case len(errResp.Errors) > 0:
			e.Code = errResp.Errors[0].Code
			e.Message = errResp.Errors[0].Message
			e.Detail = errResp.Errors[0].Detail
		case errResp.Error != "":
			e.Message = errResp.Error
		default:
			e.Message = errResp.Title
			e.Detail = errResp.Detail
		}
	} else {
		e.Message = truncateBytes(body, 200)
	}
	if status == http.StatusTooManyRequests {
		e.RateLimitReset = parseRateLimitReset(headers["x-rate-limit-reset"])
	}
	return e
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Detail
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s HTTP %d (code %d): %s", e.Endpoint, e.Status, e.Code, msg)
	}
	return fmt.Sprintf("%s HTTP %d: %s", e.Endpoint, e.Status, msg)
}

// Is maps the status code onto the status sentinels.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrFieldsTooLarge:
		return e.Status == http.StatusRequestHeaderFieldsTooLarge
	case ErrTooManyRequests:
		return e.Status == http.StatusTooManyRequests || e.Class == errRateLimited
	case ErrServer:
		return e.Status >= 500
	}
	return false
}

// Problem is one entry of a v2 partial-error response.
type Problem struct {
	Type   string
	Title  string
	Detail string
	Value  string
}

// APIError is returned when a 2xx response carries errors and no data.
type APIError struct {
	Endpoint string
	Problems []Problem
}

func newAPIError(endpoint string, body []byte) *APIError {
	var errResp apiErrorBody
	if json.Unmarshal(body, &errResp) != nil || len(errResp.Errors) == 0 {
		return nil
	}
	e := &APIError{Endpoint: endpoint}
	for _, p := range errResp.Errors {
		msg := p.Detail
		if msg == "" {
			msg = p.Message
		}
		var value string
		if p.Value != nil {
			value = fmt.Sprint(p.Value)
		}
		e.Problems = append(e.Problems, Problem{Type: p.Type, Title: p.Title, Detail: msg, Value: value})
	}
	return e
}

func (e *APIError) Error() string {
	if len(e.Problems) == 0 {
		return e.Endpoint + ": API error"
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Problems[0].Detail)
}

// Is maps the v2 problem types onto the resource sentinels.
func (e *APIError) Is(target error) bool {
	var suffix string
	switch target {
	case ErrResourceNotFound:
		suffix = "/resource-not-found"
	case ErrUnauthorizedForResource:
		suffix = "/not-authorized-for-resource"
	case ErrDisallowedResource:
		suffix = "/disallowed-resource"
	default:
		return false
	}
	for _, p := range e.Problems {
		if strings.HasSuffix(p.Type, suffix) {
			return true
		}
	}
	return false
}

// UnrecognizedEventError reports a webhook delivery whose event family or
// subtype is unknown.
type UnrecognizedEventError struct {
	Family string
	Type   string
}

func (e *UnrecognizedEventError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("unrecognized event kind: %s/%s", e.Family, e.Type)
	}
	if e.Family == "" {
		return "unrecognized event kind: no known family key"
	}
	return "unrecognized event kind: " + e.Family
}

func (e *UnrecognizedEventError) Is(target error) bool {
	return target == ErrUnrecognizedEventKind
}

// parseRateLimitReset parses the X-Rate-Limit-Reset unix timestamp header.
// Falls back to 15 minutes from now if missing or invalid.
func parseRateLimitReset(v string) time.Time {
	if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(ts, 0)
	}
	return time.Now().Add(15 * time.Minute)
}

func truncateBytes(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
