// Package entity defines the parliamentary data shapes handed to the
// content generators, along with their validation rules and domain errors.
//
// Every field is already normalized: a missing title is a descriptive
// placeholder, a missing count is 0. Consumers never see raw tool output.
package entity

// Placeholders used when the tool server omits or garbles a field.
const (
	PlaceholderTitle    = "Untitled Document"
	PlaceholderSession  = "Untitled Session"
	PlaceholderName     = "Unknown"
	PlaceholderDate     = "TBD"
	PlaceholderLocation = "Strasbourg"
)

// PlenarySession is one sitting of the full parliament.
type PlenarySession struct {
	ID          string
	Title       string
	Date        string
	Location    string
	AgendaItems int
}

// Committee is a standing committee and its recent activity.
type Committee struct {
	ID           string
	Name         string
	Abbreviation string
	Chair        string
	Members      int
	// Activity lists recent meeting topics, newest first.
	Activity []string
}

// Document is an adopted text, report or other parliamentary document.
type Document struct {
	ID        string
	Title     string
	Type      string
	Date      string
	Committee string
}

// Question is a written or oral parliamentary question.
type Question struct {
	ID      string
	Subject string
	Author  string
	Date    string
	Status  string
}

// VotingRecord is a single roll-call vote.
type VotingRecord struct {
	ID      string
	Title   string
	Date    string
	For     int
	Against int
	Abstain int
	Result  string
}

// Total returns the number of votes cast.
func (v VotingRecord) Total() int {
	return v.For + v.Against + v.Abstain
}

// MEP is a Member of the European Parliament.
type MEP struct {
	ID      string
	Name    string
	Country string
	Group   string
}
