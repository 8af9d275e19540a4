package assessment

import "testing"

func makeQuestions(subjects ...string) []Question {
	qs := make([]Question, len(subjects))
	for i, sub := range subjects {
		qs[i] = Question{
			ID:            string(rune('a' + i)),
			Subject:       sub,
			QuestionText:  "Q" + string(rune('a'+i)),
			Options:       []string{"opt1", "opt2", "opt3", "opt4"},
			CorrectAnswer: "opt1",
		}
	}
	return qs
}

func newTestSession(t *testing.T, subjects ...string) *Session {
	t.Helper()
	s, err := NewSession(makeQuestions(subjects...), 600)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestNewSession_InvalidConfiguration(t *testing.T) {
	if _, err := NewSession(nil, 600); err != ErrInvalidConfiguration {
		t.Fatalf("empty set: expected ErrInvalidConfiguration, got %v", err)
	}
	if _, err := NewSession(makeQuestions("Physics"), 0); err != ErrInvalidConfiguration {
		t.Fatalf("zero duration: expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestNewSession_FirstQuestionVisited(t *testing.T) {
	s := newTestSession(t, "Physics", "Physics")
	if got := s.StatusOf("a"); got != StatusNotAnswered {
		t.Fatalf("question 0 should be visited (not_answered), got %s", got)
	}
	if got := s.StatusOf("b"); got != StatusNotVisited {
		t.Fatalf("question 1 should be not_visited, got %s", got)
	}
}

func TestStatusPrecedence(t *testing.T) {
	s := newTestSession(t, "Physics", "Physics", "Physics", "Physics")

	s.SetAnswer("b", "opt2")
	s.ToggleMark("b")
	if got := s.StatusOf("b"); got != StatusMarkedAndAnswered {
		t.Errorf("answered+marked: got %s", got)
	}

	s.SetAnswer("c", "opt3")
	if got := s.StatusOf("c"); got != StatusAnswered {
		t.Errorf("answered only: got %s", got)
	}

	s.ToggleMark("d")
	if got := s.StatusOf("d"); got != StatusMarkedForReview {
		t.Errorf("marked only: got %s", got)
	}
}

func TestStatusCounts_SumToN(t *testing.T) {
	s := newTestSession(t, "Physics", "Physics", "Chemistry", "Chemistry", "Maths")

	check := func(step string) {
		t.Helper()
		c := s.StatusCounts()
		sum := c.Answered + c.NotAnswered + c.MarkedForReview + c.MarkedAndAnswered + c.NotVisited
		if sum != s.Len() {
			t.Fatalf("%s: counts sum %d, want %d", step, sum, s.Len())
		}
	}

	check("initial")
	s.SetAnswer("a", "opt1")
	check("after answer")
	s.ToggleMark("b")
	check("after mark")
	s.Advance(false)
	check("after advance")
	s.GoTo(4)
	check("after goto")
	s.ClearAnswer("a")
	check("after clear")
}

func TestVisited_NeverReverts(t *testing.T) {
	s := newTestSession(t, "Physics", "Physics", "Physics")

	s.GoTo(2)
	s.GoTo(0)
	if got := s.StatusOf("c"); got == StatusNotVisited {
		t.Fatal("visited question reverted to not_visited")
	}
}

func TestAnswerRoundTrip_RestoresStatus(t *testing.T) {
	s := newTestSession(t, "Physics", "Physics")

	before := s.StatusOf("b")
	s.SetAnswer("b", "opt2")
	s.ClearAnswer("b")
	if got := s.StatusOf("b"); got != before {
		t.Fatalf("status after set+clear = %s, want %s", got, before)
	}

	// Same round trip on a visited question.
	s.Advance(false)
	before = s.StatusOf("b")
	s.SetAnswer("b", "opt2")
	s.ClearAnswer("b")
	if got := s.StatusOf("b"); got != before {
		t.Fatalf("visited status after set+clear = %s, want %s", got, before)
	}
}

func TestAdvance_SectionSkip(t *testing.T) {
	// Physics [0,2], Chemistry [3,4], Maths [5]
	s := newTestSession(t, "Physics", "Physics", "Physics", "Chemistry", "Chemistry", "Maths")

	s.GoTo(2) // last index of Physics
	if err := s.Advance(false); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if s.CurrentIndex() != 3 {
		t.Fatalf("expected first Chemistry index 3, got %d", s.CurrentIndex())
	}
	if got := s.StatusOf("d"); got == StatusNotVisited {
		t.Fatal("landing question not visited after advance")
	}

	s.GoTo(4) // last index of Chemistry
	s.Advance(false)
	if s.CurrentIndex() != 5 {
		t.Fatalf("expected Maths index 5, got %d", s.CurrentIndex())
	}
}

func TestAdvance_LastIndexNoOp(t *testing.T) {
	s := newTestSession(t, "Physics", "Chemistry")

	s.GoTo(1)
	if err := s.Advance(false); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if s.CurrentIndex() != 1 {
		t.Fatalf("advance at last index moved to %d", s.CurrentIndex())
	}
}

func TestAdvance_MarkCurrentFirst(t *testing.T) {
	s := newTestSession(t, "Physics", "Physics")

	if err := s.Advance(true); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := s.StatusOf("a"); got != StatusMarkedForReview {
		t.Fatalf("expected question a marked, got %s", got)
	}
	if s.CurrentIndex() != 1 {
		t.Fatalf("expected index 1, got %d", s.CurrentIndex())
	}
}

func TestGoTo_Bounds(t *testing.T) {
	s := newTestSession(t, "Physics", "Physics")

	if err := s.GoTo(2); err != ErrIndexOutOfRange {
		t.Fatalf("GoTo(2): expected ErrIndexOutOfRange, got %v", err)
	}
	if err := s.GoTo(-1); err != ErrIndexOutOfRange {
		t.Fatalf("GoTo(-1): expected ErrIndexOutOfRange, got %v", err)
	}
	if s.CurrentIndex() != 0 {
		t.Fatal("failed GoTo mutated current index")
	}
}

func TestPrevious_NoOpAtZero(t *testing.T) {
	s := newTestSession(t, "Physics", "Chemistry")

	if err := s.Previous(); err != nil {
		t.Fatalf("Previous: %v", err)
	}
	if s.CurrentIndex() != 0 {
		t.Fatalf("Previous at 0 moved to %d", s.CurrentIndex())
	}

	// Previous crosses section boundaries freely.
	s.GoTo(1)
	s.Previous()
	if s.CurrentIndex() != 0 {
		t.Fatalf("expected index 0, got %d", s.CurrentIndex())
	}
}

func TestRetake_StartsCleared(t *testing.T) {
	questions := makeQuestions("Physics", "Physics", "Chemistry")

	first, _ := NewSession(questions, 600)
	first.SetAnswer("a", "opt1")
	first.ToggleMark("b")
	first.GoTo(2)

	retake, err := NewSession(questions, 600)
	if err != nil {
		t.Fatalf("retake NewSession: %v", err)
	}
	c := retake.StatusCounts()
	if c.Answered != 0 || c.MarkedAndAnswered != 0 || c.MarkedForReview != 0 {
		t.Fatalf("retake carries prior state: %+v", c)
	}
	if retake.CurrentIndex() != 0 {
		t.Fatalf("retake current index = %d", retake.CurrentIndex())
	}
}

func TestSubjectSections(t *testing.T) {
	tests := []struct {
		name     string
		subjects []string
		want     []SubjectSection
	}{
		{
			name:     "single subject",
			subjects: []string{"Physics", "Physics"},
			want:     []SubjectSection{{Subject: "Physics", Start: 0, End: 1, Count: 2}},
		},
		{
			name:     "three sections",
			subjects: []string{"Physics", "Chemistry", "Chemistry", "Maths"},
			want: []SubjectSection{
				{Subject: "Physics", Start: 0, End: 0, Count: 1},
				{Subject: "Chemistry", Start: 1, End: 2, Count: 2},
				{Subject: "Maths", Start: 3, End: 3, Count: 1},
			},
		},
		{
			name:     "repeated subject forms separate runs",
			subjects: []string{"Physics", "Maths", "Physics"},
			want: []SubjectSection{
				{Subject: "Physics", Start: 0, End: 0, Count: 1},
				{Subject: "Maths", Start: 1, End: 1, Count: 1},
				{Subject: "Physics", Start: 2, End: 2, Count: 1},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SubjectSections(makeQuestions(tc.subjects...))
			if len(got) != len(tc.want) {
				t.Fatalf("got %d sections, want %d", len(got), len(tc.want))
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("section %d = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestValidateQuestionSet(t *testing.T) {
	good := makeQuestions("Physics")
	if err := ValidateQuestionSet(good); err != nil {
		t.Fatalf("valid set rejected: %v", err)
	}

	// Correct answer differing only by case and whitespace is acceptable.
	caseSet := makeQuestions("Physics")
	caseSet[0].CorrectAnswer = " OPT1 "
	if err := ValidateQuestionSet(caseSet); err != nil {
		t.Fatalf("case-insensitive match rejected: %v", err)
	}

	orphan := makeQuestions("Physics")
	orphan[0].CorrectAnswer = "not an option"
	if err := ValidateQuestionSet(orphan); err == nil {
		t.Fatal("correct answer outside options accepted")
	}

	dup := makeQuestions("Physics", "Physics")
	dup[1].ID = dup[0].ID
	if err := ValidateQuestionSet(dup); err == nil {
		t.Fatal("duplicate ids accepted")
	}
}

func TestMutationAfterFinalize(t *testing.T) {
	s := newTestSession(t, "Physics")
	if _, err := s.Finalize(ResultMeta{}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if err := s.SetAnswer("a", "opt1"); err != ErrInvalidState {
		t.Errorf("SetAnswer after finalize: %v", err)
	}
	if err := s.ToggleMark("a"); err != ErrInvalidState {
		t.Errorf("ToggleMark after finalize: %v", err)
	}
	if err := s.Advance(false); err != ErrInvalidState {
		t.Errorf("Advance after finalize: %v", err)
	}
	if err := s.GoTo(0); err != ErrInvalidState {
		t.Errorf("GoTo after finalize: %v", err)
	}
}
