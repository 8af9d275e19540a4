package assessment

import (
	"math"
	"strings"
	"time"
)

// Negative-marking scheme: +4 correct, −1 incorrect, 0 unanswered.
const (
	MarksCorrect   = 4
	MarksIncorrect = -1
)

// AnsweredQuestion is a question snapshot carrying the user's final answer.
type AnsweredQuestion struct {
	Question
	UserAnswer string `json:"user_answer"`
}

// TestScore is the aggregate canonical score of a finished attempt.
type TestScore struct {
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Unanswered int `json:"unanswered"`
	TotalScore int `json:"total_score"`
	MaxScore   int `json:"max_score"`
}

// ResultMeta carries the host-supplied identifiers attached to a Result.
// AttemptID is the prior attempt's id on a retake, so persistence overwrites
// it; the engine itself is agnostic to users and retakes.
type ResultMeta struct {
	AttemptID string
	QuizID    string
	TestType  string
	TestTitle string
}

// Result is the final immutable scored snapshot of a finished attempt. The
// engine hands it to the caller and keeps no reference.
type Result struct {
	TestAttemptID    string             `json:"test_attempt_id"`
	OriginalQuizID   string             `json:"original_quiz_id"`
	TestType         string             `json:"test_type"`
	TestTitle        string             `json:"test_title"`
	DateCompleted    time.Time          `json:"date_completed"`
	Score            TestScore          `json:"score"`
	Questions        []AnsweredQuestion `json:"questions"`
	TimeTakenSeconds int                `json:"time_taken_seconds"`
}

// answerIsCorrect compares a user answer against the key, tolerant to
// surrounding whitespace and letter case only — never to paraphrase.
func answerIsCorrect(userAnswer, correctAnswer string) bool {
	return strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(correctAnswer))
}

// ScoreAnswers computes the aggregate score for a final answer set. Pure and
// deterministic: identical inputs always produce an identical TestScore.
func ScoreAnswers(questions []AnsweredQuestion) TestScore {
	var score TestScore
	for _, q := range questions {
		switch {
		case q.UserAnswer == "":
			score.Unanswered++
		case answerIsCorrect(q.UserAnswer, q.CorrectAnswer):
			score.Correct++
		default:
			score.Incorrect++
		}
	}
	score.TotalScore = score.Correct*MarksCorrect + score.Incorrect*MarksIncorrect
	score.MaxScore = len(questions) * MarksCorrect
	return score
}

// Finalize stops the countdown, scores the final answer set and produces the
// Result. Terminal and one-shot: the session accepts no mutation afterwards,
// and finalizing again returns ErrInvalidState. Elapsed time is
// duration − remaining for both manual submit and expiry.
func (s *Session) Finalize(meta ResultMeta) (*Result, error) {
	if s.finalized || len(s.questions) == 0 {
		return nil, ErrInvalidState
	}

	s.timer.Stop()
	s.finalized = true

	answered := make([]AnsweredQuestion, len(s.questions))
	for i, q := range s.questions {
		answered[i] = AnsweredQuestion{Question: q, UserAnswer: s.answers[q.ID]}
	}

	return &Result{
		TestAttemptID:    meta.AttemptID,
		OriginalQuizID:   meta.QuizID,
		TestType:         meta.TestType,
		TestTitle:        meta.TestTitle,
		DateCompleted:    time.Now().UTC(),
		Score:            ScoreAnswers(answered),
		Questions:        answered,
		TimeTakenSeconds: s.timer.Elapsed(),
	}, nil
}

// SubjectReport is the per-subject slice of the reporting breakdown.
type SubjectReport struct {
	Subject       string  `json:"subject"`
	Correct       int     `json:"correct"`
	Incorrect     int     `json:"incorrect"`
	Unanswered    int     `json:"unanswered"`
	MarksObtained int     `json:"marks_obtained"`
	MaxMarks      int     `json:"max_marks"`
	Percentage    float64 `json:"percentage"`
}

// Breakdown is a derived reporting view grouped by subject in first-seen
// order. It is computed on demand and is not part of the canonical score.
// Strongest and Weakest are empty when every subject ties.
type Breakdown struct {
	Subjects  []SubjectReport `json:"subjects"`
	Strongest string          `json:"strongest,omitempty"`
	Weakest   string          `json:"weakest,omitempty"`
}

// SubjectBreakdown computes the per-subject reporting view of a final answer
// set. A net-negative subject floors at 0%, rounded to two decimals.
func SubjectBreakdown(questions []AnsweredQuestion) Breakdown {
	var order []string
	bySubject := make(map[string]*SubjectReport)

	for _, q := range questions {
		rep, ok := bySubject[q.Subject]
		if !ok {
			rep = &SubjectReport{Subject: q.Subject}
			bySubject[q.Subject] = rep
			order = append(order, q.Subject)
		}

		rep.MaxMarks += MarksCorrect
		switch {
		case q.UserAnswer == "":
			rep.Unanswered++
		case answerIsCorrect(q.UserAnswer, q.CorrectAnswer):
			rep.Correct++
			rep.MarksObtained += MarksCorrect
		default:
			rep.Incorrect++
			rep.MarksObtained += MarksIncorrect
		}
	}

	var b Breakdown
	for _, subject := range order {
		rep := bySubject[subject]
		pct := float64(rep.MarksObtained) / float64(rep.MaxMarks) * 100
		if pct < 0 {
			pct = 0
		}
		rep.Percentage = math.Round(pct*100) / 100
		b.Subjects = append(b.Subjects, *rep)
	}

	if len(b.Subjects) > 1 {
		strongest, weakest := b.Subjects[0], b.Subjects[0]
		allTied := true
		for _, rep := range b.Subjects[1:] {
			if rep.Percentage != strongest.Percentage {
				allTied = false
			}
			if rep.Percentage > strongest.Percentage {
				strongest = rep
			}
			if rep.Percentage < weakest.Percentage {
				weakest = rep
			}
		}
		if !allTied {
			b.Strongest = strongest.Subject
			b.Weakest = weakest.Subject
		}
	}

	return b
}
