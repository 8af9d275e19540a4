package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testprepai/testprep-backend/internal/assessment"
	"github.com/testprepai/testprep-backend/internal/model"
)

// QuizRepository handles quiz data access. The full question set, answer key
// included, is stored as a JSONB column; takers only ever see the stripped
// Redis payload.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

// Create inserts a new quiz with its question set.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz, questions []assessment.Question) error {
	raw, err := json.Marshal(questions)
	if err != nil {
		return err
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (owner_id, title, test_type, duration_minutes, question_count, questions)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		q.OwnerID, q.Title, q.TestType, q.DurationMinutes, len(questions), raw,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// GetByID retrieves a quiz's metadata by ID.
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, title, test_type, duration_minutes, question_count, created_at, updated_at
		 FROM quizzes WHERE id = $1`, id,
	).Scan(&q.ID, &q.OwnerID, &q.Title, &q.TestType, &q.DurationMinutes, &q.QuestionCount, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuestions retrieves a quiz's full question set, answer key included.
func (r *QuizRepository) GetQuestions(ctx context.Context, id uuid.UUID) ([]assessment.Question, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT questions FROM quizzes WHERE id = $1`, id,
	).Scan(&raw)
	if err != nil {
		return nil, err
	}

	var questions []assessment.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// ListByOwner retrieves a user's quizzes with pagination, newest first.
func (r *QuizRepository) ListByOwner(ctx context.Context, ownerID, limit, offset int) ([]model.Quiz, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quizzes WHERE owner_id = $1`, ownerID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_id, title, test_type, duration_minutes, question_count, created_at, updated_at
		 FROM quizzes WHERE owner_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.OwnerID, &q.Title, &q.TestType, &q.DurationMinutes, &q.QuestionCount, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, 0, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, total, rows.Err()
}

// ListRecent retrieves the most recently created quizzes across all owners,
// used to prewarm the cache at startup.
func (r *QuizRepository) ListRecent(ctx context.Context, limit int) ([]model.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_id, title, test_type, duration_minutes, question_count, created_at, updated_at
		 FROM quizzes ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.OwnerID, &q.Title, &q.TestType, &q.DurationMinutes, &q.QuestionCount, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// Delete removes a quiz owned by the given user. Returns the number of rows
// removed so callers can distinguish not-found from not-owned.
func (r *QuizRepository) Delete(ctx context.Context, id uuid.UUID, ownerID int) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM quizzes WHERE id = $1 AND owner_id = $2`, id, ownerID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
