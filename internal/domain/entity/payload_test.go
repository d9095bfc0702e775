package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlice_Provenance(t *testing.T) {
	live := Live([]MEP{{ID: "1", Name: "A"}})
	fallback := Fallback([]MEP{{ID: "x", Name: "B"}})
	var unused Slice[MEP]

	assert.False(t, live.Illustrative())
	assert.True(t, fallback.Illustrative())
	assert.False(t, unused.Illustrative())
	assert.Equal(t, 1, live.Len())
	assert.Equal(t, 0, unused.Len())
}

func TestPayload_IllustrativeSections(t *testing.T) {
	p := &Payload{
		Kind:      OutputWeekAhead,
		Sessions:  Live([]PlenarySession{{ID: "s1"}}),
		Documents: Fallback([]Document{{ID: "d1"}}),
		Votes:     Fallback([]VotingRecord{{ID: "v1"}}),
		Questions: Live([]Question{{ID: "q1"}}),
	}

	assert.Equal(t, []string{SectionDocuments, SectionVotes}, p.IllustrativeSections())
	assert.False(t, p.FullyLive())

	p.Documents = Live(p.Documents.Items)
	p.Votes = Live(p.Votes.Items)
	assert.Empty(t, p.IllustrativeSections())
	assert.True(t, p.FullyLive())

	p.Degraded = true
	assert.False(t, p.FullyLive())
}

func TestVotingRecord_Total(t *testing.T) {
	v := VotingRecord{For: 350, Against: 200, Abstain: 45}
	assert.Equal(t, 595, v.Total())
}

func TestOutputKind_Valid(t *testing.T) {
	for _, k := range AllOutputKinds() {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, OutputKind("").Valid())
}
