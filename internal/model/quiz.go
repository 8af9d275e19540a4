package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/testprepai/testprep-backend/internal/assessment"
)

// TestType distinguishes a timed mock test from an untimed-feel practice run.
// Both run on the same countdown; the type only labels the stored result.
type TestType string

const (
	TestTypeMock     TestType = "mock"
	TestTypePractice TestType = "practice"
)

// Quiz represents a stored question set a user can attempt any number of times.
type Quiz struct {
	ID              uuid.UUID `json:"id"`
	OwnerID         int       `json:"owner_id"`
	Title           string    `json:"title"`
	TestType        TestType  `json:"test_type"`
	DurationMinutes int       `json:"duration_minutes"`
	QuestionCount   int       `json:"question_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateQuizRequest is the payload for storing a generated quiz. The question
// array is the raw generator output and is re-validated against the strict
// schema before anything is persisted.
type CreateQuizRequest struct {
	Title           string              `json:"title" binding:"required,min=3,max=255"`
	TestType        TestType            `json:"test_type" binding:"required,oneof=mock practice"`
	DurationMinutes int                 `json:"duration_minutes" binding:"required,min=1,max=480"`
	Questions       []QuizQuestionInput `json:"questions" binding:"required,min=1,dive"`
}

// QuizQuestionInput is one question as produced by the generator.
type QuizQuestionInput struct {
	ID            string   `json:"id" binding:"required,max=64"`
	Subject       string   `json:"subject" binding:"required,max=100"`
	QuestionText  string   `json:"question_text" binding:"required,min=1,max=2000"`
	Options       []string `json:"options" binding:"required,min=2,max=6,dive,required"`
	CorrectAnswer string   `json:"correct_answer" binding:"required,max=500"`
}

// QuizPayload is the Redis-cached payload sent to takers (no correct answers).
type QuizPayload struct {
	QuizID          uuid.UUID                   `json:"quiz_id"`
	Title           string                      `json:"title"`
	TestType        TestType                    `json:"test_type"`
	DurationMinutes int                         `json:"duration_minutes"`
	Questions       []QuestionForTaker          `json:"questions"`
	Sections        []assessment.SubjectSection `json:"sections"`
}

// QuestionForTaker is a question without its answer key.
type QuestionForTaker struct {
	ID           string   `json:"id"`
	Subject      string   `json:"subject"`
	QuestionText string   `json:"question_text"`
	Options      []string `json:"options"`
}
