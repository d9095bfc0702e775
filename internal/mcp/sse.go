package mcp

import (
	"bufio"
	"bytes"
	"io"
)

// maxEventLine bounds a single event-stream line.
const maxEventLine = 4 << 20

// ParseEventStream scans a gateway event-stream body line by line and
// returns the first data line that decodes as a JSON-RPC response (an id
// plus a result or error). Comments, event/id/retry fields, blank lines
// and malformed JSON are skipped. ok is false when no line qualifies.
//
// The gateway sends one complete JSON message per data line, so lines are
// not joined across an event.
func ParseEventStream(r io.Reader) (msg *Message, raw []byte, ok bool) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)

	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(line) == 0 || line[0] == ':' {
			continue
		}
		payload, found := bytes.CutPrefix(line, []byte("data:"))
		if !found {
			continue
		}
		payload = bytes.TrimSpace(payload)
		if len(payload) == 0 {
			continue
		}

		candidate, err := decodeMessage(payload)
		if err != nil || !candidate.IsResponse() {
			continue
		}
		// scanner reuses its buffer between calls.
		return candidate, bytes.Clone(payload), true
	}
	return nil, nil, false
}
