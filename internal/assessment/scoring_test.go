package assessment

import "testing"

// answeredSet builds a set with the given number of correct, incorrect and
// unanswered questions, in that order.
func answeredSet(correct, incorrect, unanswered int) []AnsweredQuestion {
	var out []AnsweredQuestion
	id := 0
	add := func(n int, answer string) {
		for i := 0; i < n; i++ {
			out = append(out, AnsweredQuestion{
				Question: Question{
					ID:            string(rune('a' + id)),
					Subject:       "Physics",
					Options:       []string{"right", "wrong"},
					CorrectAnswer: "right",
				},
				UserAnswer: answer,
			})
			id++
		}
	}
	add(correct, "right")
	add(incorrect, "wrong")
	add(unanswered, "")
	return out
}

func TestScoreAnswers_NegativeMarking(t *testing.T) {
	score := ScoreAnswers(answeredSet(6, 3, 1))

	if score.Correct != 6 || score.Incorrect != 3 || score.Unanswered != 1 {
		t.Fatalf("tallies = %+v", score)
	}
	if score.TotalScore != 21 {
		t.Errorf("TotalScore = %d, want 21", score.TotalScore)
	}
	if score.MaxScore != 40 {
		t.Errorf("MaxScore = %d, want 40", score.MaxScore)
	}
}

func TestScoreAnswers_CaseAndWhitespaceTolerance(t *testing.T) {
	qs := []AnsweredQuestion{
		{
			Question:   Question{ID: "a", Subject: "Geography", Options: []string{"paris", "london"}, CorrectAnswer: "paris"},
			UserAnswer: " Paris ",
		},
		{
			// Paraphrase is not tolerated, only case and whitespace.
			Question:   Question{ID: "b", Subject: "Geography", Options: []string{"the city of paris", "london"}, CorrectAnswer: "the city of paris"},
			UserAnswer: "paris",
		},
	}

	score := ScoreAnswers(qs)
	if score.Correct != 1 || score.Incorrect != 1 {
		t.Fatalf("score = %+v, want 1 correct and 1 incorrect", score)
	}
}

func TestScoreAnswers_Deterministic(t *testing.T) {
	set := answeredSet(4, 2, 2)
	first := ScoreAnswers(set)
	for i := 0; i < 5; i++ {
		if got := ScoreAnswers(set); got != first {
			t.Fatalf("run %d produced %+v, first run %+v", i, got, first)
		}
	}
}

func TestFinalize(t *testing.T) {
	qs := []Question{
		{ID: "a", Subject: "Physics", Options: []string{"x", "y"}, CorrectAnswer: "x"},
		{ID: "b", Subject: "Physics", Options: []string{"x", "y"}, CorrectAnswer: "x"},
		{ID: "c", Subject: "Maths", Options: []string{"x", "y"}, CorrectAnswer: "x"},
	}
	s, err := NewSession(qs, 600)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	s.SetAnswer("a", "x")
	s.SetAnswer("b", "y")
	s.Timer().Start()
	for i := 0; i < 30; i++ {
		s.Timer().Tick()
	}

	res, err := s.Finalize(ResultMeta{
		AttemptID: "attempt-1",
		QuizID:    "quiz-1",
		TestType:  "mock",
		TestTitle: "Physics Mock 1",
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if res.TestAttemptID != "attempt-1" || res.OriginalQuizID != "quiz-1" {
		t.Errorf("identifiers not carried: %+v", res)
	}
	if res.Score.Correct != 1 || res.Score.Incorrect != 1 || res.Score.Unanswered != 1 {
		t.Errorf("score tallies = %+v", res.Score)
	}
	if res.Score.TotalScore != 3 || res.Score.MaxScore != 12 {
		t.Errorf("totals = %d/%d, want 3/12", res.Score.TotalScore, res.Score.MaxScore)
	}
	if res.TimeTakenSeconds != 30 {
		t.Errorf("TimeTakenSeconds = %d, want 30", res.TimeTakenSeconds)
	}
	if len(res.Questions) != 3 {
		t.Errorf("snapshot has %d questions", len(res.Questions))
	}

	if _, err := s.Finalize(ResultMeta{}); err != ErrInvalidState {
		t.Fatalf("second Finalize: %v, want ErrInvalidState", err)
	}
}

func TestFinalize_StopsTimer(t *testing.T) {
	s, _ := NewSession(makeQuestions("Physics"), 600)
	s.Timer().Start()

	if _, err := s.Finalize(ResultMeta{}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if s.Timer().IsActive() {
		t.Fatal("timer still active after finalize")
	}
}

func TestSubjectBreakdown_PercentageFloor(t *testing.T) {
	// 2 incorrect out of 2: marks −2 of 8, which floors at 0%.
	b := SubjectBreakdown(answeredSet(0, 2, 0))
	if len(b.Subjects) != 1 {
		t.Fatalf("got %d subjects", len(b.Subjects))
	}
	if got := b.Subjects[0].Percentage; got != 0 {
		t.Fatalf("Percentage = %v, want 0", got)
	}
	if b.Subjects[0].MarksObtained != -2 {
		t.Fatalf("MarksObtained = %d, want -2", b.Subjects[0].MarksObtained)
	}
}

func TestSubjectBreakdown_StrongestWeakest(t *testing.T) {
	set := answeredSet(2, 0, 0) // Physics: 100%
	set = append(set, AnsweredQuestion{
		Question:   Question{ID: "z1", Subject: "Maths", Options: []string{"r", "w"}, CorrectAnswer: "r"},
		UserAnswer: "w",
	})
	set = append(set, AnsweredQuestion{
		Question:   Question{ID: "z2", Subject: "Maths", Options: []string{"r", "w"}, CorrectAnswer: "r"},
		UserAnswer: "r",
	})

	b := SubjectBreakdown(set)
	if b.Strongest != "Physics" {
		t.Errorf("Strongest = %q, want Physics", b.Strongest)
	}
	if b.Weakest != "Maths" {
		t.Errorf("Weakest = %q, want Maths", b.Weakest)
	}
}

func TestSubjectBreakdown_AllTiedReportsNeither(t *testing.T) {
	set := answeredSet(1, 0, 0)
	set = append(set, AnsweredQuestion{
		Question:   Question{ID: "z1", Subject: "Maths", Options: []string{"r", "w"}, CorrectAnswer: "r"},
		UserAnswer: "r",
	})

	b := SubjectBreakdown(set)
	if b.Strongest != "" || b.Weakest != "" {
		t.Fatalf("tied subjects reported strongest %q weakest %q", b.Strongest, b.Weakest)
	}
}

func TestSubjectBreakdown_RoundsTwoDecimals(t *testing.T) {
	// 2 correct, 1 incorrect: 7 of 12 marks = 58.333... → 58.33.
	b := SubjectBreakdown(answeredSet(2, 1, 0))
	if got := b.Subjects[0].Percentage; got != 58.33 {
		t.Fatalf("Percentage = %v, want 58.33", got)
	}
}
