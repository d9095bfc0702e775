package fetch

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"parliament-monitor/internal/domain/entity"
	"parliament-monitor/internal/mcp"
)

// record is one loosely typed item from a tool payload.
type record map[string]any

// sectionKeys lists the payload keys that may hold a section's items,
// most specific first.
var sectionKeys = map[string][]string{
	entity.SectionSessions:   {"sessions", "session", "plenarySessions"},
	entity.SectionCommittees: {"committees", "committee"},
	entity.SectionDocuments:  {"documents", "document", "results"},
	entity.SectionQuestions:  {"questions", "question"},
	entity.SectionVotes:      {"votes", "vote", "votingRecords"},
	entity.SectionMEPs:       {"meps", "mep", "members"},
}

// identityKeys name the fields that make a bare object one of the section's
// items rather than an envelope around zero items.
var identityKeys = map[string][]string{
	entity.SectionSessions:   {"id", "sessionId", "title", "name"},
	entity.SectionCommittees: {"id", "committeeId", "abbreviation", "abbr", "name"},
	entity.SectionDocuments:  {"id", "documentId", "reference", "title"},
	entity.SectionQuestions:  {"id", "questionId", "reference", "subject"},
	entity.SectionVotes:      {"id", "voteId", "title", "subject"},
	entity.SectionMEPs:       {"id", "mepId", "name", "fullName"},
}

// genericKeys are envelope keys servers commonly wrap lists in.
var genericKeys = []string{"data", "items"}

// dateLayouts are tried in order when normalizing dates.
var dateLayouts = []string{
	entity.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// decodeRecords extracts the items of a section from the first text block.
// An absent or blank text block yields no items. A top-level array is taken
// as the item list; an object is searched for the section's keys and, if
// none is present, taken as a single item.
func decodeRecords(section string, result *mcp.ToolCallResult) ([]record, error) {
	if result == nil {
		return nil, nil
	}
	text := strings.TrimSpace(result.FirstText())
	if text == "" {
		return nil, nil
	}

	var root any
	if err := json.Unmarshal([]byte(text), &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseablePayload, err)
	}

	switch v := root.(type) {
	case []any:
		return toRecords(v), nil
	case map[string]any:
		keys := append(append([]string{}, sectionKeys[section]...), genericKeys...)
		for _, key := range keys {
			if inner, ok := v[key]; ok {
				switch inner := inner.(type) {
				case []any:
					return toRecords(inner), nil
				case map[string]any:
					return []record{inner}, nil
				case nil:
					return nil, nil
				default:
					return nil, fmt.Errorf("%w: %q is %T", ErrUnparseablePayload, key, inner)
				}
			}
		}
		if item := record(v); item.str(identityKeys[section]...) != "" {
			return []record{item}, nil
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: top level is %T", ErrUnparseablePayload, root)
	}
}

func toRecords(items []any) []record {
	out := make([]record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// str returns the first non-blank value among keys, formatted as text.
func (r record) str(keys ...string) string {
	for _, key := range keys {
		switch v := r[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

// strOr is str with a placeholder for missing values.
func (r record) strOr(placeholder string, keys ...string) string {
	if s := r.str(keys...); s != "" {
		return s
	}
	return placeholder
}

// num returns the first numeric value among keys. Numeric strings are
// accepted; anything else counts as 0.
func (r record) num(keys ...string) int {
	for _, key := range keys {
		switch v := r[key].(type) {
		case float64:
			if !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 {
				return int(v)
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
				return n
			}
		case []any:
			return len(v)
		}
	}
	return 0
}

// date returns the first parseable date among keys as YYYY-MM-DD, or the
// date placeholder.
func (r record) date(keys ...string) string {
	for _, key := range keys {
		if d, ok := normalizeDate(r.str(key)); ok {
			return d
		}
	}
	return entity.PlaceholderDate
}

// list returns a list of non-blank strings under key. List elements
// may themselves be objects carrying a title or topic.
func (r record) list(key string) []string {
	items, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			if s := record(v).str("title", "topic", "subject", "name"); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func normalizeDate(value string) (string, bool) {
	if value == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(entity.DateLayout), true
		}
	}
	if len(value) > len(entity.DateLayout) {
		if t, err := time.Parse(entity.DateLayout, value[:len(entity.DateLayout)]); err == nil {
			return t.Format(entity.DateLayout), true
		}
	}
	return "", false
}

func normalizeSessions(records []record) []entity.PlenarySession {
	out := make([]entity.PlenarySession, 0, len(records))
	for _, r := range records {
		out = append(out, entity.PlenarySession{
			ID:          r.str("id", "sessionId"),
			Title:       r.strOr(entity.PlaceholderSession, "title", "name"),
			Date:        r.date("date", "startDate", "sessionDate"),
			Location:    r.strOr(entity.PlaceholderLocation, "location", "place"),
			AgendaItems: r.num("agendaItems", "agenda", "itemCount"),
		})
	}
	return out
}

func normalizeCommittees(records []record) []entity.Committee {
	out := make([]entity.Committee, 0, len(records))
	for _, r := range records {
		abbr := r.str("abbreviation", "abbr", "id", "committeeId")
		out = append(out, entity.Committee{
			ID:           r.strOr(abbr, "id", "committeeId"),
			Name:         r.strOr(entity.PlaceholderName, "name", "title"),
			Abbreviation: abbr,
			Chair:        r.strOr(entity.PlaceholderName, "chair", "chairperson"),
			Members:      r.num("members", "memberCount"),
			Activity:     r.list("meetings"),
		})
	}
	return out
}

func normalizeDocuments(records []record) []entity.Document {
	out := make([]entity.Document, 0, len(records))
	for _, r := range records {
		out = append(out, entity.Document{
			ID:        r.str("id", "documentId", "reference"),
			Title:     r.strOr(entity.PlaceholderTitle, "title", "name"),
			Type:      r.strOr(entity.PlaceholderName, "type", "documentType"),
			Date:      r.date("date", "publishedDate", "adoptedDate"),
			Committee: r.str("committee", "committeeId"),
		})
	}
	return out
}

func normalizeQuestions(records []record) []entity.Question {
	out := make([]entity.Question, 0, len(records))
	for _, r := range records {
		out = append(out, entity.Question{
			ID:      r.str("id", "questionId", "reference"),
			Subject: r.strOr(entity.PlaceholderTitle, "subject", "title"),
			Author:  r.strOr(entity.PlaceholderName, "author", "mep"),
			Date:    r.date("date", "submittedDate"),
			Status:  r.strOr(entity.PlaceholderName, "status"),
		})
	}
	return out
}

func normalizeVotes(records []record) []entity.VotingRecord {
	out := make([]entity.VotingRecord, 0, len(records))
	for _, r := range records {
		v := entity.VotingRecord{
			ID:      r.str("id", "voteId"),
			Title:   r.strOr(entity.PlaceholderTitle, "title", "subject"),
			Date:    r.date("date", "voteDate"),
			For:     r.num("for", "votesFor", "inFavor"),
			Against: r.num("against", "votesAgainst"),
			Abstain: r.num("abstain", "abstentions", "votesAbstain"),
		}
		v.Result = r.strOr(voteResult(v), "result", "outcome")
		out = append(out, v)
	}
	return out
}

// voteResult derives an outcome from the counts when the server omits it.
func voteResult(v entity.VotingRecord) string {
	switch {
	case v.Total() == 0:
		return entity.PlaceholderName
	case v.For > v.Against:
		return "ADOPTED"
	default:
		return "REJECTED"
	}
}

func normalizeMEPs(records []record) []entity.MEP {
	out := make([]entity.MEP, 0, len(records))
	for _, r := range records {
		out = append(out, entity.MEP{
			ID:      r.str("id", "mepId"),
			Name:    r.strOr(entity.PlaceholderName, "name", "fullName"),
			Country: r.strOr(entity.PlaceholderName, "country"),
			Group:   r.strOr(entity.PlaceholderName, "politicalGroup", "group"),
		})
	}
	return out
}
