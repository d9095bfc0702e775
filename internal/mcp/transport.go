package mcp

import "context"

// Mode identifies which physical channel a transport uses.
type Mode string

const (
	// ModeProcess spawns the tool server locally and speaks over stdio.
	ModeProcess Mode = "process"
	// ModeGateway talks to a shared HTTP relay in front of the server.
	ModeGateway Mode = "gateway"
)

// Sink receives everything a transport reads from its channel.
// The Client is the only production implementation.
type Sink interface {
	// HandleMessage is called once per inbound frame, in arrival order.
	HandleMessage(raw []byte)

	// HandleDisconnect is called when the channel goes away on its own
	// (process exit, read failure). It is not called for Close.
	HandleDisconnect(err error)
}

// Transport owns the physical channel and raw message framing.
// Responses are not returned from Send; they are delivered to the Sink
// passed to Connect, which keeps correlation identical for both modes.
type Transport interface {
	// Connect establishes the channel. Frames read afterwards go to sink.
	Connect(ctx context.Context, sink Sink) error

	// Send writes a framed request.
	Send(ctx context.Context, req *Request) error

	// Notify writes a framed notification.
	Notify(ctx context.Context, notif *Notification) error

	// Connected reports whether the channel is currently usable.
	Connected() bool

	// Mode returns the transport kind.
	Mode() Mode

	// Close tears the channel down. It is idempotent.
	Close() error
}
