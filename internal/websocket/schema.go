package websocket

import "github.com/testprepai/testprep-backend/internal/assessment"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionClear  Action = "clear"
	ActionMark   Action = "mark"
	ActionNext   Action = "next"
	ActionPrev   Action = "prev"
	ActionGoTo   Action = "goto"
	ActionState  Action = "state"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest records the selected option for a question.
type AnswerRequest struct {
	Action Action `json:"action"`
	QID    string `json:"q_id"`
	Answer string `json:"ans"`
}

// ClearRequest removes the recorded answer for a question.
type ClearRequest struct {
	Action Action `json:"action"`
	QID    string `json:"q_id"`
}

// MarkRequest toggles the marked-for-review flag on a question.
type MarkRequest struct {
	Action Action `json:"action"`
	QID    string `json:"q_id"`
}

// NextRequest advances to the next question. Mark toggles the current
// question's review flag before moving ("Mark for Review & Next").
type NextRequest struct {
	Action Action `json:"action"`
	Mark   bool   `json:"mark"`
}

// GoToRequest jumps to a question by index (palette selection).
type GoToRequest struct {
	Action Action `json:"action"`
	Index  int    `json:"index"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventSuccess Event = "success"
	EventState   Event = "state"
	EventGraded  Event = "graded"
	EventExpired Event = "expired"
	EventPong    Event = "pong"
)

type AckResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// StateResponse is the full live view of an attempt: current position,
// countdown, section layout and the status palette.
type StateResponse struct {
	Event            Event                       `json:"event"`
	CurrentIndex     int                         `json:"current_index"`
	RemainingSeconds int                         `json:"remaining_seconds"`
	Sections         []assessment.SubjectSection `json:"sections"`
	Statuses         map[string]string           `json:"statuses"`
	Counts           assessment.StatusCounts     `json:"counts"`
}

// GradedResponse carries the final score. The event distinguishes a manual
// submit (graded) from the countdown running out (expired).
type GradedResponse struct {
	Event  Event                `json:"event"`
	Status string               `json:"status"`
	Score  assessment.TestScore `json:"score"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
