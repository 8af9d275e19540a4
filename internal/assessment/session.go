package assessment

// QuestionStatus classifies a question inside an in-progress session.
type QuestionStatus string

const (
	StatusAnswered          QuestionStatus = "answered"
	StatusNotAnswered       QuestionStatus = "not_answered"
	StatusMarkedForReview   QuestionStatus = "marked_for_review"
	StatusMarkedAndAnswered QuestionStatus = "marked_and_answered"
	StatusNotVisited        QuestionStatus = "not_visited"
)

// StatusCounts is a tally of question statuses, used for the live summary
// palette. The values always sum to the question count.
type StatusCounts struct {
	Answered          int `json:"answered"`
	NotAnswered       int `json:"not_answered"`
	MarkedForReview   int `json:"marked_for_review"`
	MarkedAndAnswered int `json:"marked_and_answered"`
	NotVisited        int `json:"not_visited"`
}

// Session tracks one in-progress timed attempt at a fixed question set:
// per-question answer, visited and marked-for-review status, the current
// position, and the countdown.
//
// A session has a single owner and is not safe for concurrent use; callers
// serialize access (the hosting service holds one mutex per live attempt).
// Once finalized it accepts no further mutation.
type Session struct {
	questions []Question
	sections  []SubjectSection
	current   int
	answers   map[string]string
	marked    map[string]struct{}
	visited   map[string]struct{}
	timer     *Countdown
	finalized bool
}

// NewSession initializes a session over questions with a total duration in
// seconds. All answers start cleared — also on a retake of a previously
// stored question set — and question 0 is visited. Returns
// ErrInvalidConfiguration for an empty set or non-positive duration.
func NewSession(questions []Question, durationSeconds int) (*Session, error) {
	if len(questions) == 0 || durationSeconds <= 0 {
		return nil, ErrInvalidConfiguration
	}

	qs := make([]Question, len(questions))
	copy(qs, questions)

	s := &Session{
		questions: qs,
		sections:  SubjectSections(qs),
		answers:   make(map[string]string),
		marked:    make(map[string]struct{}),
		visited:   make(map[string]struct{}),
		timer:     NewCountdown(durationSeconds),
	}
	s.visited[qs[0].ID] = struct{}{}
	return s, nil
}

// Timer returns the session countdown.
func (s *Session) Timer() *Countdown { return s.timer }

// Len returns the question count.
func (s *Session) Len() int { return len(s.questions) }

// CurrentIndex returns the current question position.
func (s *Session) CurrentIndex() int { return s.current }

// Current returns the question at the current position.
func (s *Session) Current() Question { return s.questions[s.current] }

// Questions returns a copy of the question set.
func (s *Session) Questions() []Question {
	qs := make([]Question, len(s.questions))
	copy(qs, s.questions)
	return qs
}

// Sections returns the derived subject sections.
func (s *Session) Sections() []SubjectSection { return s.sections }

// SetAnswer records the selected option for a question. The option text is
// not validated against the question's options; grading treats any non-key
// text as incorrect.
func (s *Session) SetAnswer(questionID, option string) error {
	if s.finalized {
		return ErrInvalidState
	}
	s.answers[questionID] = option
	return nil
}

// ClearAnswer removes the recorded answer for a question.
func (s *Session) ClearAnswer(questionID string) error {
	if s.finalized {
		return ErrInvalidState
	}
	delete(s.answers, questionID)
	return nil
}

// Answer returns the recorded answer for a question, if any.
func (s *Session) Answer(questionID string) (string, bool) {
	a, ok := s.answers[questionID]
	return a, ok
}

// Answers returns a copy of the answer map.
func (s *Session) Answers() map[string]string {
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// ToggleMark flips the marked-for-review flag of a question.
func (s *Session) ToggleMark(questionID string) error {
	if s.finalized {
		return ErrInvalidState
	}
	if _, ok := s.marked[questionID]; ok {
		delete(s.marked, questionID)
	} else {
		s.marked[questionID] = struct{}{}
	}
	return nil
}

// Visit flags a question as visited. Called implicitly whenever the current
// index changes; a question never returns to not_visited afterwards.
func (s *Session) Visit(questionID string) {
	s.visited[questionID] = struct{}{}
}

// StatusOf classifies a question. Precedence: answered and marked, answered,
// marked, visited, never visited.
func (s *Session) StatusOf(questionID string) QuestionStatus {
	_, answered := s.answers[questionID]
	_, marked := s.marked[questionID]
	_, visited := s.visited[questionID]

	switch {
	case answered && marked:
		return StatusMarkedAndAnswered
	case answered:
		return StatusAnswered
	case marked:
		return StatusMarkedForReview
	case visited:
		return StatusNotAnswered
	default:
		return StatusNotVisited
	}
}

// StatusCounts tallies StatusOf across the whole set. O(N), recomputed per
// call; question sets are small (≤ a few hundred).
func (s *Session) StatusCounts() StatusCounts {
	var c StatusCounts
	for _, q := range s.questions {
		switch s.StatusOf(q.ID) {
		case StatusAnswered:
			c.Answered++
		case StatusNotAnswered:
			c.NotAnswered++
		case StatusMarkedForReview:
			c.MarkedForReview++
		case StatusMarkedAndAnswered:
			c.MarkedAndAnswered++
		case StatusNotVisited:
			c.NotVisited++
		}
	}
	return c
}

// Advance performs the forward auto-advance ("Save & Next" / "Mark & Next").
// From the last index of a non-final subject section it jumps to the next
// section's start, skipping the rest of the current section; from the last
// index overall it does nothing (the UI shows Submit there). The landing
// question is always visited.
func (s *Session) Advance(markCurrentFirst bool) error {
	if s.finalized {
		return ErrInvalidState
	}

	if markCurrentFirst {
		if err := s.ToggleMark(s.questions[s.current].ID); err != nil {
			return err
		}
	}

	last := len(s.questions) - 1
	if s.current == last {
		return nil
	}

	next := s.current + 1
	if len(s.sections) > 1 {
		if sec := s.sectionAt(s.current); sec != nil && s.current == sec.End && sec.End < last {
			next = sec.End + 1 // first index of the following section
		}
	}

	s.current = next
	s.Visit(s.questions[next].ID)
	return nil
}

// GoTo jumps directly to index, with no section logic (palette selection).
func (s *Session) GoTo(index int) error {
	if s.finalized {
		return ErrInvalidState
	}
	if index < 0 || index >= len(s.questions) {
		return ErrIndexOutOfRange
	}
	s.current = index
	s.Visit(s.questions[index].ID)
	return nil
}

// Previous moves back one question, crossing section boundaries freely.
// No-op at index 0.
func (s *Session) Previous() error {
	if s.finalized {
		return ErrInvalidState
	}
	if s.current == 0 {
		return nil
	}
	s.current--
	s.Visit(s.questions[s.current].ID)
	return nil
}

func (s *Session) sectionAt(index int) *SubjectSection {
	for i := range s.sections {
		if index >= s.sections[i].Start && index <= s.sections[i].End {
			return &s.sections[i]
		}
	}
	return nil
}

// Finalized reports whether the session has produced its Result.
func (s *Session) Finalized() bool { return s.finalized }
