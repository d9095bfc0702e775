// Package mcp implements the client side of the JSON-RPC tool protocol
// spoken by the parliamentary data server.
//
// Two transports are supported: a locally spawned process exchanging
// newline-delimited frames over stdin/stdout, and an HTTP gateway that
// answers each POST with either a plain JSON body or a server-sent-event
// stream. Both transports deliver inbound frames to the Client, which
// correlates responses to pending requests by id.
//
// Tool invocations are strongly typed: every remote operation has its own
// request type (see tools.go) so malformed calls are caught before any I/O.
package mcp
