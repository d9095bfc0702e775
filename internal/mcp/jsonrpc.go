package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// jsonrpcVersion is the JSON-RPC protocol version used on the wire.
const jsonrpcVersion = "2.0"

// Request is a JSON-RPC 2.0 request message.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewRequest creates a JSON-RPC 2.0 request with the given method and params.
func NewRequest(id int64, method string, params any) *Request {
	return &Request{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	}
}

// Notification is a JSON-RPC 2.0 notification (no ID, no response expected).
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewNotification creates a JSON-RPC 2.0 notification.
func NewNotification(method string, params any) *Notification {
	return &Notification{
		JSONRPC: jsonrpcVersion,
		Method:  method,
		Params:  params,
	}
}

// Message is any inbound JSON-RPC 2.0 frame. A response carries an ID and
// exactly one of Result or Error; a notification carries a Method and no ID.
//
// ID is kept raw so that frames with a missing, null or non-numeric id can
// be told apart from responses to our own requests.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RequestID returns the numeric id of the message. ok is false for
// notifications and for ids this client could never have issued.
func (m *Message) RequestID() (int64, bool) {
	raw := bytes.TrimSpace(m.ID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// IsResponse reports whether the message is a well-formed response:
// it has an id plus a result or an error.
func (m *Message) IsResponse() bool {
	if _, ok := m.RequestID(); !ok {
		return false
	}
	return len(m.Result) > 0 || m.Error != nil
}

// decodeMessage parses a single frame.
func decodeMessage(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decode json-rpc frame: %w", err)
	}
	return &msg, nil
}

// RPCError is a JSON-RPC 2.0 error object returned by the peer.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface for RPCError.
func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}
