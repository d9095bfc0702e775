package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"parliament-monitor/internal/resilience/circuitbreaker"
)

const (
	// SessionHeader carries the gateway session token in both directions.
	SessionHeader = "Mcp-Session-Id"

	// RateLimitRetryHeader is the gateway's own back-off header. It takes
	// priority over the standard Retry-After header.
	RateLimitRetryHeader = "X-RateLimit-Retry-After"

	maxGatewayBody  = 10 << 20
	maxErrorSnippet = 512
	defaultTimeout  = 60 * time.Second
)

// GatewayConfig configures an HTTP gateway transport.
type GatewayConfig struct {
	// URL is the fixed gateway endpoint every frame is POSTed to.
	URL string

	// Credential is sent as a bearer token when non-empty.
	Credential string

	// Headers are additional HTTP headers sent with every request.
	Headers map[string]string

	// HTTPClient overrides the default client (60s timeout).
	HTTPClient *http.Client

	// RequestsPerSecond and Burst configure the client-side pacer.
	// Zero disables pacing.
	RequestsPerSecond float64
	Burst             int

	// Breaker guards HTTP round trips. Nil builds one from
	// circuitbreaker.GatewayTransportConfig.
	Breaker *circuitbreaker.TransportBreaker

	// Logger is the structured logger for transport diagnostics.
	Logger *slog.Logger
}

// GatewayTransport talks to a shared HTTP relay in front of the tool
// server. Each frame is a POST; the reply is either a JSON body or an
// event stream, and the decoded response is handed to the sink exactly
// like a stdout line from the process transport.
type GatewayTransport struct {
	url        string
	credential string
	headers    map[string]string
	httpClient *http.Client
	pacer      *Pacer
	breaker    *circuitbreaker.TransportBreaker
	logger     *slog.Logger

	mu        sync.RWMutex
	sink      Sink
	sessionID string

	connected atomic.Bool
}

var _ Transport = (*GatewayTransport)(nil)

// NewGatewayTransport creates a gateway transport. No network I/O happens
// until the first Send.
func NewGatewayTransport(cfg GatewayConfig) *GatewayTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	breaker := cfg.Breaker
	if breaker == nil {
		bcfg := circuitbreaker.GatewayTransportConfig()
		bcfg.IsSuccessful = IsHealthyGatewayError
		breaker = circuitbreaker.NewTransportBreaker(bcfg)
	}

	return &GatewayTransport{
		url:        cfg.URL,
		credential: cfg.Credential,
		headers:    cfg.Headers,
		httpClient: client,
		pacer:      NewPacer(cfg.RequestsPerSecond, cfg.Burst),
		breaker:    breaker,
		logger:     logger.With(slog.String("transport", string(ModeGateway))),
	}
}

// IsHealthyGatewayError reports whether err is an answer from a working
// gateway. Session expiry, rate limiting, client-side 4xx and caller
// cancellation do not count against the transport breaker.
func IsHealthyGatewayError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrRateLimited) || errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode < http.StatusInternalServerError
	}
	return false
}

// Mode returns ModeGateway.
func (t *GatewayTransport) Mode() Mode { return ModeGateway }

// Connected reports whether a session is usable. It turns false on 401.
func (t *GatewayTransport) Connected() bool { return t.connected.Load() }

// SessionID returns the current session token, empty before the first
// successful response and after expiry.
func (t *GatewayTransport) SessionID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sessionID
}

// Connect registers the sink and marks the transport usable. The session
// token is negotiated by the first request, normally initialize.
func (t *GatewayTransport) Connect(_ context.Context, sink Sink) error {
	if t.url == "" {
		return errors.New("gateway URL is not configured")
	}
	t.mu.Lock()
	t.sink = sink
	t.mu.Unlock()
	t.connected.Store(true)
	return nil
}

// Send POSTs a request and delivers the decoded response to the sink.
func (t *GatewayTransport) Send(ctx context.Context, req *Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	raw, err := t.post(ctx, body, true)
	if err != nil {
		return err
	}

	t.mu.RLock()
	sink := t.sink
	t.mu.RUnlock()
	if sink != nil {
		sink.HandleMessage(raw)
	}
	return nil
}

// Notify POSTs a notification. Any 2xx status is accepted.
func (t *GatewayTransport) Notify(ctx context.Context, notif *Notification) error {
	body, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = t.post(ctx, body, false)
	return err
}

// Close clears the session. It is idempotent.
func (t *GatewayTransport) Close() error {
	t.mu.Lock()
	t.sessionID = ""
	t.sink = nil
	t.mu.Unlock()
	t.connected.Store(false)
	return nil
}

func (t *GatewayTransport) post(ctx context.Context, body []byte, expectResponse bool) ([]byte, error) {
	if !t.connected.Load() {
		return nil, ErrNotConnected
	}
	if err := t.pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for gateway pacer: %w", err)
	}

	result, err := t.breaker.Execute(func() (any, error) {
		return t.roundTrip(ctx, body, expectResponse)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("gateway %s: %w", t.breaker.Name(), err)
		}
		return nil, err
	}
	raw, _ := result.([]byte)
	return raw, nil
}

func (t *GatewayTransport) roundTrip(ctx context.Context, body []byte, expectResponse bool) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}
	if t.credential != "" {
		httpReq.Header.Set("Authorization", "Bearer "+t.credential)
	}
	if sid := t.SessionID(); sid != "" {
		httpReq.Header.Set(SessionHeader, sid)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request to gateway: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, maxGatewayBody))
		_ = httpResp.Body.Close()
	}()

	switch {
	case httpResp.StatusCode == http.StatusUnauthorized:
		t.expireSession()
		return nil, &SessionExpiredError{Message: readSnippet(httpResp.Body)}
	case httpResp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(httpResp.Header, time.Now())
		t.logger.Warn("gateway rate limited", slog.Duration("retry_after", retryAfter))
		return nil, &RateLimitError{RetryAfter: retryAfter}
	case httpResp.StatusCode < 200 || httpResp.StatusCode > 299:
		return nil, &HTTPStatusError{StatusCode: httpResp.StatusCode, Message: readSnippet(httpResp.Body)}
	}

	if sid := httpResp.Header.Get(SessionHeader); sid != "" {
		t.mu.Lock()
		if t.sessionID != sid {
			t.logger.Debug("gateway session established")
		}
		t.sessionID = sid
		t.mu.Unlock()
	}

	if !expectResponse {
		return nil, nil
	}

	payload, err := io.ReadAll(io.LimitReader(httpResp.Body, maxGatewayBody))
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}
	return extractResponse(httpResp.Header.Get("Content-Type"), payload)
}

// expireSession forgets the session token and marks the transport
// disconnected so the next caller reconnects.
func (t *GatewayTransport) expireSession() {
	t.mu.Lock()
	t.sessionID = ""
	t.mu.Unlock()
	if t.connected.Swap(false) {
		t.logger.Warn("gateway session expired, marked disconnected")
	}
}

// extractResponse picks the JSON-RPC response out of a 2xx body.
func extractResponse(contentType string, payload []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, ErrNoMessage
	}

	if strings.HasPrefix(strings.ToLower(contentType), "text/event-stream") || trimmed[0] != '{' {
		if _, raw, ok := ParseEventStream(bytes.NewReader(payload)); ok {
			return raw, nil
		}
		return nil, ErrNoMessage
	}

	msg, err := decodeMessage(trimmed)
	if err != nil || !msg.IsResponse() {
		return nil, ErrNoMessage
	}
	return trimmed, nil
}

// parseRetryAfter reads the mandated delay from the priority header,
// falling back to Retry-After (seconds or HTTP date). Missing or invalid
// headers yield zero.
func parseRetryAfter(h http.Header, now time.Time) time.Duration {
	for _, name := range []string{RateLimitRetryHeader, "Retry-After"} {
		if d, ok := parseDelay(h.Get(name), now); ok {
			return d
		}
	}
	return 0
}

func parseDelay(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorSnippet))
	return strings.TrimSpace(string(b))
}
