// Package webhook receives Account Activity API deliveries over HTTP: it
// answers CRC challenges, checks delivery signatures and hands each body to
// a Sink.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	twitter "github.com/anatolykoptev/go-twitter-api"
)

// SignatureHeader carries the HMAC of a delivery body.
const SignatureHeader = "X-Twitter-Webhooks-Signature"

// DeliveryIDHeader is set on every POST response.
const DeliveryIDHeader = "X-Delivery-Id"

const (
	defaultMaxBodyBytes = 1 << 20
	defaultTimeout      = 10 * time.Second
)

var (
	ErrMissingSignature = errors.New("webhook: missing signature")
	ErrBadSignature     = errors.New("webhook: signature mismatch")
)

// Sink consumes verified deliveries. *twitter.Client implements it.
type Sink interface {
	HandleDelivery(ctx context.Context, family string, body []byte) error
}

// Handler is an http.Handler for the webhook URL registered with Twitter.
type Handler struct {
	secret  []byte
	sink    Sink
	maxBody int64
	timeout time.Duration
	newID   func() string
}

// Option configures a Handler.
type Option func(*Handler)

// WithMaxBodyBytes bounds accepted delivery bodies. Default: 1 MiB.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) { h.maxBody = n }
}

// WithTimeout bounds the time the sink may spend on one delivery.
// Default: 10s.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// WithDeliveryIDs replaces the uuid delivery id generator.
func WithDeliveryIDs(gen func() string) Option {
	return func(h *Handler) { h.newID = gen }
}

// NewHandler creates a Handler. An empty consumerSecret disables signature
// checks and CRC responses.
func NewHandler(consumerSecret string, sink Sink, opts ...Option) *Handler {
	h := &Handler{
		secret:  []byte(consumerSecret),
		sink:    sink,
		maxBody: defaultMaxBodyBytes,
		timeout: defaultTimeout,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.serveCRC(w, r)
	case http.MethodPost:
		h.serveDelivery(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) serveCRC(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("crc_token")
	if token == "" {
		http.Error(w, "missing crc_token", http.StatusBadRequest)
		return
	}
	if len(h.secret) == 0 {
		slog.Error("webhook: crc challenge without consumer secret")
		http.Error(w, "crc unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"response_token": "sha256=" + Sign(h.secret, []byte(token)),
	})
}

func (h *Handler) serveDelivery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	if len(h.secret) > 0 {
		if err := Verify(h.secret, body, r.Header.Get(SignatureHeader)); err != nil {
			slog.Warn("webhook: rejected delivery", slog.String("remote", r.RemoteAddr), slog.Any("error", err))
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}
	if !gjson.ValidBytes(body) {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	id := h.newID()
	w.Header().Set(DeliveryIDHeader, id)

	ctx, cancel := context.WithTimeout(twitter.WithDeliveryID(r.Context(), id), h.timeout)
	defer cancel()

	// Twitter retries anything but 200, so failed handlers are only logged.
	if err := h.sink.HandleDelivery(ctx, "", body); err != nil {
		level := slog.LevelWarn
		if errors.Is(err, twitter.ErrUnrecognizedEventKind) {
			level = slog.LevelInfo
		}
		slog.Log(ctx, level, "webhook: delivery not handled",
			slog.String("delivery_id", id),
			slog.Any("error", err))
	}
	w.WriteHeader(http.StatusOK)
}

// Sign returns the base64 HMAC-SHA256 of msg under secret.
func Sign(secret, msg []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(msg)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks a "sha256=<base64>" signature header against body.
func Verify(secret, body []byte, header string) error {
	if header == "" {
		return ErrMissingSignature
	}
	encoded, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return fmt.Errorf("%w: unsupported scheme", ErrBadSignature)
	}
	got, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), got) {
		return ErrBadSignature
	}
	return nil
}
