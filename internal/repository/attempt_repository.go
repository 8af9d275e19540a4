package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testprepai/testprep-backend/internal/assessment"
	"github.com/testprepai/testprep-backend/internal/model"
)

// AttemptRepository handles attempt data access. One row exists per quiz and
// user; a retake resets the row in place so only the latest result survives.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Start inserts a fresh attempt or resets the existing row for a retake.
func (r *AttemptRepository) Start(ctx context.Context, a *model.Attempt) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attempts (quiz_id, user_id, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (quiz_id, user_id) DO UPDATE
		 SET status = EXCLUDED.status,
		     started_at = NOW(),
		     finished_at = NULL,
		     correct = 0, incorrect = 0, unanswered = 0,
		     total_score = 0, max_score = 0,
		     time_taken_seconds = 0,
		     result = NULL
		 RETURNING id, started_at`,
		a.QuizID, a.UserID, model.AttemptStatusInProgress,
	).Scan(&a.ID, &a.StartedAt)
}

// GetByID retrieves an attempt by ID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, quiz_id, user_id, status, started_at, finished_at,
		        correct, incorrect, unanswered, total_score, max_score, time_taken_seconds
		 FROM attempts WHERE id = $1`, id,
	).Scan(&a.ID, &a.QuizID, &a.UserID, &a.Status, &a.StartedAt, &a.FinishedAt,
		&a.Correct, &a.Incorrect, &a.Unanswered, &a.TotalScore, &a.MaxScore, &a.TimeTakenSeconds)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByQuizAndUser retrieves the attempt for a quiz-user combination.
func (r *AttemptRepository) GetByQuizAndUser(ctx context.Context, quizID uuid.UUID, userID int) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, quiz_id, user_id, status, started_at, finished_at,
		        correct, incorrect, unanswered, total_score, max_score, time_taken_seconds
		 FROM attempts WHERE quiz_id = $1 AND user_id = $2`, quizID, userID,
	).Scan(&a.ID, &a.QuizID, &a.UserID, &a.Status, &a.StartedAt, &a.FinishedAt,
		&a.Correct, &a.Incorrect, &a.Unanswered, &a.TotalScore, &a.MaxScore, &a.TimeTakenSeconds)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListByUser retrieves a user's completed attempts with pagination, newest first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]model.Attempt, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE user_id = $1 AND status = $2`,
		userID, model.AttemptStatusCompleted,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, user_id, status, started_at, finished_at,
		        correct, incorrect, unanswered, total_score, max_score, time_taken_seconds
		 FROM attempts WHERE user_id = $1 AND status = $2
		 ORDER BY finished_at DESC LIMIT $3 OFFSET $4`,
		userID, model.AttemptStatusCompleted, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.UserID, &a.Status, &a.StartedAt, &a.FinishedAt,
			&a.Correct, &a.Incorrect, &a.Unanswered, &a.TotalScore, &a.MaxScore, &a.TimeTakenSeconds); err != nil {
			return nil, 0, err
		}
		attempts = append(attempts, a)
	}
	return attempts, total, rows.Err()
}

// GetAutosavedAnswers loads the durable autosave rows for an attempt, used as
// the resume fallback when the Redis hash is gone.
func (r *AttemptRepository) GetAutosavedAnswers(ctx context.Context, attemptID uuid.UUID) (map[string]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id, answer FROM attempt_answers WHERE attempt_id = $1`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := make(map[string]string)
	for rows.Next() {
		var qid, ans string
		if err := rows.Scan(&qid, &ans); err != nil {
			return nil, err
		}
		answers[qid] = ans
	}
	return answers, rows.Err()
}

// GetResult retrieves the stored result snapshot, or nil when the attempt has
// not been completed yet.
func (r *AttemptRepository) GetResult(ctx context.Context, id uuid.UUID) (*assessment.Result, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT result FROM attempts WHERE id = $1`, id,
	).Scan(&raw)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	res := &assessment.Result{}
	if err := json.Unmarshal(raw, res); err != nil {
		return nil, err
	}
	return res, nil
}
