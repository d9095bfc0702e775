package entity

import (
	"slices"
	"time"
)

// Provenance records where a slice of data came from.
type Provenance string

const (
	// ProvenanceLive means the slice was built from a tool response.
	ProvenanceLive Provenance = "live"
	// ProvenanceFallback means the slice is canned illustrative data.
	ProvenanceFallback Provenance = "fallback"
)

// Slice is the normalized data for one source together with its provenance.
type Slice[T any] struct {
	Items      []T
	Provenance Provenance
}

// Live wraps items fetched from the tool server.
func Live[T any](items []T) Slice[T] {
	return Slice[T]{Items: items, Provenance: ProvenanceLive}
}

// Fallback wraps canned substitute items.
func Fallback[T any](items []T) Slice[T] {
	return Slice[T]{Items: items, Provenance: ProvenanceFallback}
}

// Illustrative reports whether the slice must be labelled as non-authoritative.
func (s Slice[T]) Illustrative() bool {
	return s.Provenance == ProvenanceFallback
}

// Len returns the number of items.
func (s Slice[T]) Len() int {
	return len(s.Items)
}

// Section names used in Payload.IllustrativeSections and in metrics.
const (
	SectionSessions   = "sessions"
	SectionCommittees = "committees"
	SectionDocuments  = "documents"
	SectionQuestions  = "questions"
	SectionVotes      = "votes"
	SectionMEPs       = "meps"
)

// Payload is everything one output needs, complete even when sources fail.
// Sections the output does not use are left empty with no provenance.
type Payload struct {
	Kind     OutputKind
	DateFrom string
	DateTo   string

	Sessions   Slice[PlenarySession]
	Committees Slice[Committee]
	Documents  Slice[Document]
	Questions  Slice[Question]
	Votes      Slice[VotingRecord]
	MEPs       Slice[MEP]

	// Degraded is true when the network was skipped entirely because the
	// circuit breaker refused the batch.
	Degraded  bool
	FetchedAt time.Time
}

// IllustrativeSections lists the sections filled with fallback data, in
// a stable order.
func (p *Payload) IllustrativeSections() []string {
	var out []string
	add := func(name string, illustrative bool) {
		if illustrative {
			out = append(out, name)
		}
	}
	add(SectionSessions, p.Sessions.Illustrative())
	add(SectionCommittees, p.Committees.Illustrative())
	add(SectionDocuments, p.Documents.Illustrative())
	add(SectionQuestions, p.Questions.Illustrative())
	add(SectionVotes, p.Votes.Illustrative())
	add(SectionMEPs, p.MEPs.Illustrative())
	return out
}

// FullyLive reports whether no section used fallback data.
func (p *Payload) FullyLive() bool {
	return !p.Degraded && len(p.IllustrativeSections()) == 0
}

// OutputKind names one generated output.
type OutputKind string

const (
	OutputWeekAhead        OutputKind = "week-ahead"
	OutputCommitteeReports OutputKind = "committee-reports"
	OutputMotions          OutputKind = "motions"
)

// AllOutputKinds returns every known output in generation order.
func AllOutputKinds() []OutputKind {
	return []OutputKind{OutputWeekAhead, OutputCommitteeReports, OutputMotions}
}

// Valid reports whether k is a known output.
func (k OutputKind) Valid() bool {
	return slices.Contains(AllOutputKinds(), k)
}
