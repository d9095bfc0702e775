package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"parliament-monitor/internal/observability/metrics"
	"parliament-monitor/internal/observability/tracing"
)

// Tool names exposed by the parliament tool server.
const (
	ToolPlenarySessions        = "get_plenary_sessions"
	ToolCommitteeInfo          = "get_committee_info"
	ToolSearchDocuments        = "search_documents"
	ToolParliamentaryQuestions = "get_parliamentary_questions"
	ToolVotingRecords          = "get_voting_records"
	ToolMEPs                   = "get_meps"
)

// emptyPayloads is the canned, well-shaped payload each tool answers with
// when a call is skipped or fails.
var emptyPayloads = map[string]string{
	ToolPlenarySessions:        `{"sessions":[]}`,
	ToolCommitteeInfo:          `{"committees":[]}`,
	ToolSearchDocuments:        `{"documents":[]}`,
	ToolParliamentaryQuestions: `{"questions":[]}`,
	ToolVotingRecords:          `{"votes":[]}`,
	ToolMEPs:                   `{"meps":[]}`,
}

// ToolRequest is the typed argument object of one tool. Each tool has its
// own request type so a malformed call fails before reaching the network.
type ToolRequest interface {
	// ToolName is the fixed remote operation name.
	ToolName() string

	// Validate returns an error wrapping ErrMissingArgument when a
	// required field is blank.
	Validate() error
}

// PlenarySessionsRequest lists plenary sessions in a date window.
type PlenarySessionsRequest struct {
	DateFrom string `json:"dateFrom,omitempty"`
	DateTo   string `json:"dateTo,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

func (PlenarySessionsRequest) ToolName() string { return ToolPlenarySessions }
func (PlenarySessionsRequest) Validate() error  { return nil }

// CommitteeInfoRequest fetches one committee by its identifier.
type CommitteeInfoRequest struct {
	CommitteeID string `json:"committeeId"`
}

func (CommitteeInfoRequest) ToolName() string { return ToolCommitteeInfo }

func (r CommitteeInfoRequest) Validate() error {
	return requireArg("committeeId", r.CommitteeID)
}

// SearchDocumentsRequest runs a keyword search over adopted texts and reports.
type SearchDocumentsRequest struct {
	Keyword  string `json:"keyword"`
	DateFrom string `json:"dateFrom,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

func (SearchDocumentsRequest) ToolName() string { return ToolSearchDocuments }

func (r SearchDocumentsRequest) Validate() error {
	return requireArg("keyword", r.Keyword)
}

// ParliamentaryQuestionsRequest lists recent written and oral questions.
type ParliamentaryQuestionsRequest struct {
	DateFrom string `json:"dateFrom,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

func (ParliamentaryQuestionsRequest) ToolName() string { return ToolParliamentaryQuestions }
func (ParliamentaryQuestionsRequest) Validate() error  { return nil }

// VotingRecordsRequest lists roll-call votes, optionally for one session.
type VotingRecordsRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	DateFrom  string `json:"dateFrom,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

func (VotingRecordsRequest) ToolName() string { return ToolVotingRecords }
func (VotingRecordsRequest) Validate() error  { return nil }

// MEPsRequest lists members, optionally filtered by country code.
type MEPsRequest struct {
	Country string `json:"country,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

func (MEPsRequest) ToolName() string { return ToolMEPs }
func (MEPsRequest) Validate() error  { return nil }

func requireArg(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: %w", name, ErrMissingArgument)
	}
	return nil
}

// ContentBlock is a single content item in a tools/call response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolCallResult is the tools/call result envelope. Only the first
// content block is authoritative.
type ToolCallResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// FirstText returns the text of the first content block, or "".
func (r *ToolCallResult) FirstText() string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

// EmptyResult returns the canned empty envelope for tool.
func EmptyResult(tool string) *ToolCallResult {
	payload, ok := emptyPayloads[tool]
	if !ok {
		payload = "{}"
	}
	return &ToolCallResult{Content: []ContentBlock{{Type: "text", Text: payload}}}
}

// callToolParams is the params object of tools/call.
type callToolParams struct {
	Name      string      `json:"name"`
	Arguments ToolRequest `json:"arguments"`
}

// CallTool validates req and invokes the tool. An isError answer from the
// server is returned as *ToolError.
func (c *Client) CallTool(ctx context.Context, req ToolRequest) (result *ToolCallResult, err error) {
	tool := req.ToolName()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", tool, err)
	}

	ctx, span := tracing.StartToolSpan(ctx, tool)
	start := time.Now()
	defer func() {
		metrics.RecordToolCall(tool, CallStatus(err), time.Since(start))
		tracing.EndSpan(span, err)
	}()

	raw, err := c.SendRequest(ctx, "tools/call", callToolParams{Name: tool, Arguments: req})
	if err != nil {
		return nil, fmt.Errorf("tools/call %s: %w", tool, err)
	}

	var out ToolCallResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal tools/call %s result: %w", tool, err)
	}
	if out.IsError {
		return nil, &ToolError{Tool: tool, Message: out.FirstText()}
	}
	return &out, nil
}

// CallStatus classifies a call outcome for metrics labels.
func CallStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	default:
		return "failure"
	}
}

// ToolCaller invokes one typed tool request. Client implements it
// directly and the retry controller wraps it with retry and reconnect.
type ToolCaller interface {
	CallTool(ctx context.Context, req ToolRequest) (*ToolCallResult, error)
}

// Tools exposes one method per remote operation. Every method returns a
// well-shaped result: a blank required argument skips the network and
// any error is replaced by the tool's canned empty result.
type Tools struct {
	caller ToolCaller
	logger *slog.Logger
}

// NewTools wraps caller with the never-failing tool methods.
func NewTools(caller ToolCaller, logger *slog.Logger) *Tools {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{caller: caller, logger: logger}
}

// GetPlenarySessions calls get_plenary_sessions.
func (t *Tools) GetPlenarySessions(ctx context.Context, req PlenarySessionsRequest) *ToolCallResult {
	return t.call(ctx, req)
}

// GetCommitteeInfo calls get_committee_info.
func (t *Tools) GetCommitteeInfo(ctx context.Context, req CommitteeInfoRequest) *ToolCallResult {
	return t.call(ctx, req)
}

// SearchDocuments calls search_documents.
func (t *Tools) SearchDocuments(ctx context.Context, req SearchDocumentsRequest) *ToolCallResult {
	return t.call(ctx, req)
}

// GetParliamentaryQuestions calls get_parliamentary_questions.
func (t *Tools) GetParliamentaryQuestions(ctx context.Context, req ParliamentaryQuestionsRequest) *ToolCallResult {
	return t.call(ctx, req)
}

// GetVotingRecords calls get_voting_records.
func (t *Tools) GetVotingRecords(ctx context.Context, req VotingRecordsRequest) *ToolCallResult {
	return t.call(ctx, req)
}

// GetMEPs calls get_meps.
func (t *Tools) GetMEPs(ctx context.Context, req MEPsRequest) *ToolCallResult {
	return t.call(ctx, req)
}

func (t *Tools) call(ctx context.Context, req ToolRequest) *ToolCallResult {
	tool := req.ToolName()
	if err := req.Validate(); err != nil {
		t.logger.Debug("skipping tool call with blank argument",
			slog.String("tool", tool),
			slog.Any("error", err))
		return EmptyResult(tool)
	}

	result, err := t.caller.CallTool(ctx, req)
	if err != nil {
		t.logger.Warn("tool call failed, using empty result",
			slog.String("tool", tool),
			slog.Any("error", err))
		return EmptyResult(tool)
	}
	if result == nil || len(result.Content) == 0 {
		return EmptyResult(tool)
	}
	return result
}
