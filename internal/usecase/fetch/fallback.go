package fetch

import (
	"parliament-monitor/internal/domain/entity"
)

// illustrativeSuffix marks every canned title so readers never mistake
// fallback data for the parliament's real agenda.
const illustrativeSuffix = " (illustrative)"

func fallbackSessions(w Window) []entity.PlenarySession {
	return []entity.PlenarySession{
		{ID: "fallback-session-1", Title: "Plenary session" + illustrativeSuffix, Date: w.FromDate(), Location: entity.PlaceholderLocation},
		{ID: "fallback-session-2", Title: "Plenary session" + illustrativeSuffix, Date: w.ToDate(), Location: entity.PlaceholderLocation},
	}
}

func fallbackCommittees(committees []string) []entity.Committee {
	if len(committees) == 0 {
		committees = []string{"ENVI"}
	}
	out := make([]entity.Committee, 0, len(committees))
	for _, id := range committees {
		out = append(out, entity.Committee{
			ID:           id,
			Name:         id + " committee" + illustrativeSuffix,
			Abbreviation: id,
			Chair:        entity.PlaceholderName,
		})
	}
	return out
}

func fallbackDocuments(w Window) []entity.Document {
	return []entity.Document{
		{ID: "fallback-document-1", Title: "Committee report" + illustrativeSuffix, Type: "REPORT", Date: w.FromDate()},
	}
}

func fallbackQuestions(w Window) []entity.Question {
	return []entity.Question{
		{ID: "fallback-question-1", Subject: "Written question" + illustrativeSuffix, Author: entity.PlaceholderName, Date: w.FromDate(), Status: entity.PlaceholderName},
	}
}

func fallbackVotes(w Window) []entity.VotingRecord {
	return []entity.VotingRecord{
		{ID: "fallback-vote-1", Title: "Roll-call vote" + illustrativeSuffix, Date: w.FromDate(), Result: entity.PlaceholderName},
	}
}

func fallbackMEPs() []entity.MEP {
	return []entity.MEP{
		{ID: "fallback-mep-1", Name: "Member of Parliament" + illustrativeSuffix, Country: entity.PlaceholderName, Group: entity.PlaceholderName},
	}
}
