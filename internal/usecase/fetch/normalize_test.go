package fetch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parliament-monitor/internal/domain/entity"
	"parliament-monitor/internal/mcp"
)

func textResult(text string) *mcp.ToolCallResult {
	return &mcp.ToolCallResult{Content: []mcp.ContentBlock{{Type: "text", Text: text}}}
}

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name    string
		section string
		result  *mcp.ToolCallResult
		want    int
		wantErr bool
	}{
		{"nil result", entity.SectionVotes, nil, 0, false},
		{"blank text", entity.SectionVotes, textResult("  "), 0, false},
		{"canned empty", entity.SectionVotes, mcp.EmptyResult(mcp.ToolVotingRecords), 0, false},
		{"section key", entity.SectionVotes, textResult(`{"votes":[{"id":"1"},{"id":"2"}]}`), 2, false},
		{"singular key object", entity.SectionCommittees, textResult(`{"committee":{"id":"ENVI"}}`), 1, false},
		{"data envelope", entity.SectionMEPs, textResult(`{"data":[{"id":"1"}],"total":1}`), 1, false},
		{"items envelope", entity.SectionDocuments, textResult(`{"items":[{"id":"1"}]}`), 1, false},
		{"top-level array", entity.SectionQuestions, textResult(`[{"id":"1"},"junk",{"id":"2"}]`), 2, false},
		{"bare object is one item", entity.SectionCommittees, textResult(`{"id":"ENVI","name":"Environment"}`), 1, false},
		{"null section", entity.SectionVotes, textResult(`{"votes":null}`), 0, false},
		{"empty object", entity.SectionVotes, textResult(`{}`), 0, false},
		{"bare document is one item", entity.SectionDocuments, textResult(`{"reference":"A10-0001/2026"}`), 1, false},
		{"search summary without items", entity.SectionDocuments, textResult(`{"total":0,"query":"climate"}`), 0, false},
		{"identity key left blank", entity.SectionMEPs, textResult(`{"id":" ","country":"DE"}`), 0, false},
		{"wrong section type", entity.SectionVotes, textResult(`{"votes":"none"}`), 0, true},
		{"scalar", entity.SectionVotes, textResult(`42`), 0, true},
		{"not json", entity.SectionVotes, textResult(`<html>`), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeRecords(tt.section, tt.result)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnparseablePayload)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := map[string]string{
		"2026-03-10":           "2026-03-10",
		"2026-03-10T09:00:00Z": "2026-03-10",
		"2026-03-10T09:00:00":  "2026-03-10",
		"2026-03-10 09:00:00":  "2026-03-10",
		"10/03/2026":           "2026-03-10",
		"2026-03-10T09:00+01":  "2026-03-10",
	}
	for in, want := range tests {
		got, ok := normalizeDate(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "soon", "2026-13-01"} {
		_, ok := normalizeDate(in)
		assert.False(t, ok, in)
	}
}

func TestRecordNum(t *testing.T) {
	r := record{
		"float":    float64(12),
		"string":   " 7 ",
		"negative": float64(-3),
		"bad":      "many",
		"list":     []any{"a", "b"},
	}
	assert.Equal(t, 12, r.num("float"))
	assert.Equal(t, 7, r.num("string"))
	assert.Equal(t, 0, r.num("negative"))
	assert.Equal(t, 0, r.num("bad"))
	assert.Equal(t, 2, r.num("list"))
	assert.Equal(t, 7, r.num("missing", "string"), "first usable key wins")
}

func TestNormalizeVotes_DerivesResult(t *testing.T) {
	records := []record{
		{"id": "1", "for": float64(10), "against": float64(2)},
		{"id": "2", "for": float64(2), "against": float64(10)},
		{"id": "3", "result": "POSTPONED", "for": float64(10)},
		{"id": "4"},
	}
	got := normalizeVotes(records)

	results := make([]string, len(got))
	for i, v := range got {
		results[i] = v.Result
	}
	assert.Equal(t, []string{"ADOPTED", "REJECTED", "POSTPONED", entity.PlaceholderName}, results)
}

func TestNormalizeCommittees(t *testing.T) {
	got := normalizeCommittees([]record{
		{"abbreviation": "ECON", "name": "Economic Affairs", "members": "60", "meetings": []any{"Banking", map[string]any{"title": "Tax"}, ""}},
		{},
	})

	want := []entity.Committee{
		{ID: "ECON", Name: "Economic Affairs", Abbreviation: "ECON", Chair: entity.PlaceholderName, Members: 60, Activity: []string{"Banking", "Tax"}},
		{Name: entity.PlaceholderName, Chair: entity.PlaceholderName},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("normalizeCommittees mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeSessionsAndDocuments_Placeholders(t *testing.T) {
	sessions := normalizeSessions([]record{{}})
	assert.Equal(t, entity.PlenarySession{
		Title:    entity.PlaceholderSession,
		Date:     entity.PlaceholderDate,
		Location: entity.PlaceholderLocation,
	}, sessions[0])

	docs := normalizeDocuments([]record{{"reference": "A10-0001/2026"}})
	assert.Equal(t, entity.Document{
		ID:    "A10-0001/2026",
		Title: entity.PlaceholderTitle,
		Type:  entity.PlaceholderName,
		Date:  entity.PlaceholderDate,
	}, docs[0])
}
