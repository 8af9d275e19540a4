package assessment

import (
	"fmt"
	"strings"
)

// Question is a single multiple-choice question. The set a session is built
// from is immutable once the session starts.
type Question struct {
	ID            string   `json:"id"`
	Subject       string   `json:"subject"`
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// SubjectSection is a maximal contiguous run of same-subject questions in
// set order. End is inclusive.
type SubjectSection struct {
	Subject string `json:"subject"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Count   int    `json:"count"`
}

// SubjectSections derives the contiguous subject runs of a question set.
// Returns nil for an empty set.
func SubjectSections(questions []Question) []SubjectSection {
	if len(questions) == 0 {
		return nil
	}

	var sections []SubjectSection
	start := 0
	for i := 1; i <= len(questions); i++ {
		if i == len(questions) || questions[i].Subject != questions[start].Subject {
			sections = append(sections, SubjectSection{
				Subject: questions[start].Subject,
				Start:   start,
				End:     i - 1,
				Count:   i - start,
			})
			start = i
		}
	}
	return sections
}

// ValidateQuestionSet checks a question set for problems that would make it
// unscorable: duplicate IDs, empty option lists, and correct answers that do
// not match any option (case-insensitively). The engine itself never enforces
// this — generated quizzes are graded as-is — so hosts should call it at the
// intake boundary and decide whether to reject.
func ValidateQuestionSet(questions []Question) error {
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("question %d: missing id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("question %d: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = struct{}{}

		if len(q.Options) == 0 {
			return fmt.Errorf("question %q: no options", q.ID)
		}

		found := false
		for _, opt := range q.Options {
			if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(q.CorrectAnswer)) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("question %q: correct answer %q is not among its options", q.ID, q.CorrectAnswer)
		}
	}
	return nil
}
