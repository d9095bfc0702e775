package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"parliament-monitor/internal/observability/metrics"
)

// protocolVersion is the protocol version advertised during initialize.
const protocolVersion = "2024-11-05"

// defaultRequestTimeout bounds a request whose context carries no deadline.
const defaultRequestTimeout = 30 * time.Second

// ClientConfig configures a protocol client.
type ClientConfig struct {
	// Name and Version are sent as clientInfo during initialize.
	Name    string
	Version string

	// RequestTimeout applies when the caller's context has no deadline.
	// Zero means 30s; negative disables the default deadline.
	RequestTimeout time.Duration

	// Logger is the structured logger for client diagnostics.
	Logger *slog.Logger
}

// serverInfo is returned in the initialize response.
type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// initializeResult is the initialize response result.
type initializeResult struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ServerInfo      serverInfo `json:"serverInfo"`
}

// rpcResult settles one pending request.
type rpcResult struct {
	result json.RawMessage
	err    error
}

// Client correlates JSON-RPC requests and responses over a single
// Transport. Many requests may be in flight at once; responses may arrive
// in any order and are matched by id.
type Client struct {
	transport Transport
	cfg       ClientConfig
	logger    *slog.Logger
	nextID    atomic.Int64

	pendingMu sync.Mutex
	pending   map[int64]chan rpcResult

	connectMu  sync.Mutex
	serverName string
	serverVer  string
}

var _ Sink = (*Client)(nil)

// NewClient creates a client over transport. Nothing is started until Connect.
func NewClient(transport Transport, cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = "parliament-monitor"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return &Client{
		transport: transport,
		cfg:       cfg,
		logger:    logger.With(slog.String("mcp_mode", string(transport.Mode()))),
		pending:   make(map[int64]chan rpcResult),
	}
}

// Mode returns the underlying transport mode.
func (c *Client) Mode() Mode { return c.transport.Mode() }

// Connected reports whether the channel is usable.
func (c *Client) Connected() bool { return c.transport.Connected() }

// Connect establishes the channel and performs the initialize handshake.
// It is a no-op while already connected.
func (c *Client) Connect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if c.transport.Connected() {
		return nil
	}

	if err := c.transport.Connect(ctx, c); err != nil {
		metrics.SetConnectionUp(false)
		return fmt.Errorf("connect %s transport: %w", c.transport.Mode(), err)
	}

	if err := c.initialize(ctx); err != nil {
		_ = c.transport.Close()
		c.failPending(ErrDisconnected)
		metrics.SetConnectionUp(false)
		return err
	}

	metrics.SetConnectionUp(true)
	return nil
}

func (c *Client) initialize(ctx context.Context) error {
	params := map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    c.cfg.Name,
			"version": c.cfg.Version,
		},
	}

	raw, err := c.SendRequest(ctx, "initialize", params)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	var result initializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("unmarshal initialize result: %w", err)
	}
	c.serverName = result.ServerInfo.Name
	c.serverVer = result.ServerInfo.Version

	c.logger.Info("tool server initialized",
		slog.String("server_name", result.ServerInfo.Name),
		slog.String("server_version", result.ServerInfo.Version),
		slog.String("protocol_version", result.ProtocolVersion))

	if err := c.transport.Notify(ctx, NewNotification("notifications/initialized", nil)); err != nil {
		return fmt.Errorf("send initialized notification: %w", err)
	}
	return nil
}

// SendRequest issues a request and waits for its response, the context,
// or the request timeout, whichever ends first. params must encode as a
// JSON object.
func (c *Client) SendRequest(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if isArrayParams(params) {
		return nil, fmt.Errorf("%s: %w", method, ErrParamsNotObject)
	}
	if !c.transport.Connected() {
		return nil, ErrNotConnected
	}

	// Every request gets its own deadline; an earlier caller deadline
	// still wins.
	var timeout time.Duration
	if c.cfg.RequestTimeout > 0 {
		timeout = c.cfg.RequestTimeout
		if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
			timeout = time.Until(dl)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	id := c.nextID.Add(1)
	ch := make(chan rpcResult, 1)

	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()

	if err := c.transport.Send(ctx, NewRequest(id, method, params)); err != nil {
		c.takePending(id)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{Method: method, ID: id, After: timeout}
		}
		return nil, err
	}

	select {
	case res := <-ch:
		return res.result, res.err
	case <-ctx.Done():
		if _, owned := c.takePending(id); !owned {
			// The response won the race; it is already buffered.
			res := <-ch
			return res.result, res.err
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Method: method, ID: id, After: timeout}
		}
		return nil, fmt.Errorf("%s: %w", method, ctx.Err())
	}
}

// HandleMessage settles the pending request a response belongs to.
// Malformed frames, notifications and unknown ids are dropped.
func (c *Client) HandleMessage(raw []byte) {
	msg, err := decodeMessage(raw)
	if err != nil {
		c.logger.Warn("dropping malformed frame",
			slog.Any("error", err),
			slog.Int("bytes", len(raw)))
		return
	}

	id, ok := msg.RequestID()
	if !ok {
		if msg.Method != "" {
			c.logger.Debug("ignoring notification", slog.String("method", msg.Method))
		}
		return
	}
	if !msg.IsResponse() {
		c.logger.Debug("ignoring frame that is not a response", slog.Int64("id", id))
		return
	}

	ch, found := c.takePending(id)
	if !found {
		c.logger.Debug("ignoring response for unknown request", slog.Int64("id", id))
		return
	}

	if msg.Error != nil {
		ch <- rpcResult{err: msg.Error}
		return
	}
	ch <- rpcResult{result: msg.Result}
}

// HandleDisconnect fails every in-flight request when the channel drops.
func (c *Client) HandleDisconnect(err error) {
	c.logger.Warn("tool server connection lost", slog.Any("error", err))
	metrics.SetConnectionUp(false)
	c.failPending(fmt.Errorf("%w: %v", ErrDisconnected, err))
}

// Disconnect terminates the process or clears the gateway session and
// fails pending requests. It is idempotent.
func (c *Client) Disconnect() error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	err := c.transport.Close()
	c.failPending(ErrDisconnected)
	metrics.SetConnectionUp(false)
	return err
}

// ServerInfo returns the name and version reported during initialize.
func (c *Client) ServerInfo() (name, version string) {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()
	return c.serverName, c.serverVer
}

// takePending removes and returns the channel for id. Only the caller that
// gets found=true may send on it, so every entry is settled exactly once.
func (c *Client) takePending(id int64) (chan rpcResult, bool) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	return ch, ok
}

func (c *Client) failPending(err error) {
	c.pendingMu.Lock()
	pending := c.pending
	c.pending = make(map[int64]chan rpcResult)
	c.pendingMu.Unlock()

	for _, ch := range pending {
		ch <- rpcResult{err: err}
	}
}

// isArrayParams reports whether params would encode as a JSON array.
func isArrayParams(params any) bool {
	switch p := params.(type) {
	case nil:
		return false
	case json.RawMessage:
		return bytes.HasPrefix(bytes.TrimSpace(p), []byte("["))
	}
	v := reflect.ValueOf(params)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	return v.Kind() == reflect.Slice || v.Kind() == reflect.Array
}
