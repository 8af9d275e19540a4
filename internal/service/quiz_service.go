package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/testprepai/testprep-backend/internal/assessment"
	"github.com/testprepai/testprep-backend/internal/config"
	"github.com/testprepai/testprep-backend/internal/model"
	"github.com/testprepai/testprep-backend/internal/repository"
)

// Quiz errors.
var (
	ErrQuizSchemaInvalid = errors.New("quiz content does not match the required schema")
	ErrQuizNotOwned      = errors.New("quiz does not belong to this user")
)

// QuizService handles quiz intake and the Redis payload cache.
type QuizService struct {
	quizRepo *repository.QuizRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(quizRepo *repository.QuizRepository, rdb *redis.Client, log zerolog.Logger) *QuizService {
	return &QuizService{
		quizRepo: quizRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "quiz_service").Logger(),
	}
}

// Create validates generator output against the strict question schema and
// stores the quiz. Anything that fails validation is rejected whole; no
// partial quiz is ever persisted.
func (s *QuizService) Create(ctx context.Context, ownerID int, req *model.CreateQuizRequest) (*model.Quiz, error) {
	questions := make([]assessment.Question, len(req.Questions))
	for i, in := range req.Questions {
		questions[i] = assessment.Question{
			ID:            in.ID,
			Subject:       in.Subject,
			QuestionText:  in.QuestionText,
			Options:       in.Options,
			CorrectAnswer: in.CorrectAnswer,
		}
	}

	if err := assessment.ValidateQuestionSet(questions); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrQuizSchemaInvalid, err)
	}

	quiz := &model.Quiz{
		OwnerID:         ownerID,
		Title:           req.Title,
		TestType:        req.TestType,
		DurationMinutes: req.DurationMinutes,
		QuestionCount:   len(questions),
	}
	if err := s.quizRepo.Create(ctx, quiz, questions); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}

	if err := s.WarmQuizCache(ctx, quiz, questions); err != nil {
		// The lazy path in GetPayload self-heals on the first attempt.
		s.log.Warn().Err(err).Str("quiz_id", quiz.ID.String()).Msg("Failed to warm cache")
	}

	return quiz, nil
}

// GetByID retrieves a quiz's metadata.
func (s *QuizService) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return s.quizRepo.GetByID(ctx, id)
}

// ListByOwner retrieves a user's quizzes, newest first.
func (s *QuizService) ListByOwner(ctx context.Context, ownerID, page, perPage int) ([]model.Quiz, int, error) {
	offset := (page - 1) * perPage
	return s.quizRepo.ListByOwner(ctx, ownerID, perPage, offset)
}

// Delete removes a quiz and drops its cached payload and answer key.
func (s *QuizService) Delete(ctx context.Context, id uuid.UUID, ownerID int) error {
	affected, err := s.quizRepo.Delete(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrQuizNotOwned
	}

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.QuizPayloadKey(id.String()))
	pipe.Del(ctx, config.CacheKey.QuizAnswerKey(id.String()))
	_, _ = pipe.Exec(ctx)
	return nil
}

// WarmQuizCache loads a quiz's taker payload and answer key into Redis.
// The payload omits correct answers; the key lives in a separate hash that is
// never sent to clients.
func (s *QuizService) WarmQuizCache(ctx context.Context, quiz *model.Quiz, questions []assessment.Question) error {
	takerQuestions := make([]model.QuestionForTaker, len(questions))
	for i, q := range questions {
		takerQuestions[i] = model.QuestionForTaker{
			ID:           q.ID,
			Subject:      q.Subject,
			QuestionText: q.QuestionText,
			Options:      q.Options,
		}
	}

	payload := model.QuizPayload{
		QuizID:          quiz.ID,
		Title:           quiz.Title,
		TestType:        quiz.TestType,
		DurationMinutes: quiz.DurationMinutes,
		Questions:       takerQuestions,
		Sections:        assessment.SubjectSections(questions),
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	answerKey := make(map[string]interface{}, len(questions))
	for _, q := range questions {
		answerKey[q.ID] = q.CorrectAnswer
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.QuizPayloadKey(quiz.ID.String()), payloadJSON, 0)
	pipe.Del(ctx, config.CacheKey.QuizAnswerKey(quiz.ID.String()))
	pipe.HSet(ctx, config.CacheKey.QuizAnswerKey(quiz.ID.String()), answerKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("quiz_id", quiz.ID.String()).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return nil
}

// GetPayload retrieves the cached taker payload, falling back to PostgreSQL
// and re-warming on a cache miss.
func (s *QuizService) GetPayload(ctx context.Context, quizID uuid.UUID) (*model.QuizPayload, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.QuizPayloadKey(quizID.String())).Result()
	if err == nil {
		payload := &model.QuizPayload{}
		if err := json.Unmarshal([]byte(raw), payload); err == nil {
			return payload, nil
		}
		// Corrupt cache entry; rebuild below.
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get payload: %w", err)
	}

	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.quizRepo.GetQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.WarmQuizCache(ctx, quiz, questions); err != nil {
		return nil, err
	}

	return s.GetPayload(ctx, quizID)
}

// GetAnswerKey retrieves the cached answer key hash, re-warming on a miss.
func (s *QuizService) GetAnswerKey(ctx context.Context, quizID uuid.UUID) (map[string]string, error) {
	key, err := s.rdb.HGetAll(ctx, config.CacheKey.QuizAnswerKey(quizID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("get answer key: %w", err)
	}
	if len(key) > 0 {
		return key, nil
	}

	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	questions, err := s.quizRepo.GetQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.WarmQuizCache(ctx, quiz, questions); err != nil {
		return nil, err
	}

	return s.rdb.HGetAll(ctx, config.CacheKey.QuizAnswerKey(quizID.String())).Result()
}

// PrewarmAllCaches loads the most recent quizzes into Redis at startup so the
// first attempts after a deploy skip the lazy-load path.
func (s *QuizService) PrewarmAllCaches(ctx context.Context, limit int) error {
	quizzes, err := s.quizRepo.ListRecent(ctx, limit)
	if err != nil {
		return fmt.Errorf("list recent quizzes: %w", err)
	}

	warmed := 0
	for i := range quizzes {
		questions, err := s.quizRepo.GetQuestions(ctx, quizzes[i].ID)
		if err != nil {
			s.log.Warn().Err(err).Str("quiz_id", quizzes[i].ID.String()).Msg("Failed to load questions, skipping")
			continue
		}
		if err := s.WarmQuizCache(ctx, &quizzes[i], questions); err != nil {
			s.log.Warn().Err(err).Str("quiz_id", quizzes[i].ID.String()).Msg("Failed to warm quiz, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(quizzes)).
		Msg("Prewarming complete")
	return nil
}
