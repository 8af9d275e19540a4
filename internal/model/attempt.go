package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/testprepai/testprep-backend/internal/assessment"
)

// AttemptStatus enumerates attempt states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
)

// Attempt represents one run of a user through a quiz. A retake reuses the
// same row, so only the latest result per quiz and user is kept.
type Attempt struct {
	ID               uuid.UUID     `json:"id"`
	QuizID           uuid.UUID     `json:"quiz_id"`
	UserID           int           `json:"user_id"`
	Status           AttemptStatus `json:"status"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       *time.Time    `json:"finished_at,omitempty"`
	Correct          int           `json:"correct"`
	Incorrect        int           `json:"incorrect"`
	Unanswered       int           `json:"unanswered"`
	TotalScore       int           `json:"total_score"`
	MaxScore         int           `json:"max_score"`
	TimeTakenSeconds int           `json:"time_taken_seconds"`
}

// AttemptStartResponse is returned when a live attempt begins or resumes.
type AttemptStartResponse struct {
	AttemptID        uuid.UUID   `json:"attempt_id"`
	Quiz             QuizPayload `json:"quiz"`
	RemainingSeconds int         `json:"remaining_seconds"`
	Resumed          bool        `json:"resumed"`
}

// AttemptResultResponse is the stored result view, including the per-subject
// breakdown derived on read.
type AttemptResultResponse struct {
	Attempt   Attempt              `json:"attempt"`
	Result    *assessment.Result   `json:"result,omitempty"`
	Breakdown assessment.Breakdown `json:"breakdown"`
}
