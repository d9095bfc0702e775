package fetch

import (
	"fmt"
	"time"

	"parliament-monitor/internal/domain/entity"
	"parliament-monitor/internal/mcp"
)

// Window is the inclusive date range an output covers.
type Window struct {
	From time.Time
	To   time.Time
}

// NewWindow returns the window that starts at from and spans days days.
func NewWindow(from time.Time, days int) Window {
	return Window{From: from, To: from.AddDate(0, 0, days)}
}

// Validate rejects zero and reversed windows.
func (w Window) Validate() error {
	if w.From.IsZero() || w.To.IsZero() {
		return fmt.Errorf("%w: missing bound", ErrInvalidWindow)
	}
	if w.To.Before(w.From) {
		return fmt.Errorf("%w: %s is before %s", ErrInvalidWindow,
			w.To.Format(entity.DateLayout), w.From.Format(entity.DateLayout))
	}
	return nil
}

// FromDate formats the window start as YYYY-MM-DD.
func (w Window) FromDate() string { return w.From.Format(entity.DateLayout) }

// ToDate formats the window end as YYYY-MM-DD.
func (w Window) ToDate() string { return w.To.Format(entity.DateLayout) }

// call is one planned tool invocation and the payload section it feeds.
type call struct {
	section string
	req     mcp.ToolRequest
}

// plan lists the tool calls one output needs. Several calls may feed the
// same section; their items are merged in plan order.
func (s *Service) plan(kind entity.OutputKind, w Window) ([]call, error) {
	from, to := w.FromDate(), w.ToDate()
	limit := s.cfg.Limit

	switch kind {
	case entity.OutputWeekAhead:
		return []call{
			{entity.SectionSessions, mcp.PlenarySessionsRequest{DateFrom: from, DateTo: to, Limit: limit}},
			{entity.SectionCommittees, mcp.CommitteeInfoRequest{CommitteeID: s.primaryCommittee()}},
			{entity.SectionDocuments, mcp.SearchDocumentsRequest{Keyword: s.cfg.Keyword, DateFrom: from, Limit: limit}},
			{entity.SectionQuestions, mcp.ParliamentaryQuestionsRequest{DateFrom: from, Limit: limit}},
			{entity.SectionVotes, mcp.VotingRecordsRequest{DateFrom: from, Limit: limit}},
		}, nil

	case entity.OutputCommitteeReports:
		calls := make([]call, 0, len(s.cfg.Committees)+1)
		for _, id := range s.cfg.Committees {
			calls = append(calls, call{entity.SectionCommittees, mcp.CommitteeInfoRequest{CommitteeID: id}})
		}
		calls = append(calls, call{entity.SectionDocuments,
			mcp.SearchDocumentsRequest{Keyword: s.cfg.Keyword, DateFrom: from, Limit: limit}})
		return calls, nil

	case entity.OutputMotions:
		return []call{
			{entity.SectionVotes, mcp.VotingRecordsRequest{DateFrom: from, Limit: limit}},
			{entity.SectionQuestions, mcp.ParliamentaryQuestionsRequest{DateFrom: from, Limit: limit}},
			{entity.SectionMEPs, mcp.MEPsRequest{Limit: limit}},
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownOutput, kind)
}

// sections returns the distinct sections a plan feeds, in plan order.
func sections(calls []call) []string {
	seen := make(map[string]bool, len(calls))
	var out []string
	for _, c := range calls {
		if !seen[c.section] {
			seen[c.section] = true
			out = append(out, c.section)
		}
	}
	return out
}

func (s *Service) primaryCommittee() string {
	if len(s.cfg.Committees) == 0 {
		return ""
	}
	return s.cfg.Committees[0]
}
