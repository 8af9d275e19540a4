package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/testprepai/testprep-backend/internal/assessment"
	"github.com/testprepai/testprep-backend/internal/config"
	"github.com/testprepai/testprep-backend/internal/model"
	"github.com/testprepai/testprep-backend/internal/repository"
)

// Attempt errors.
var (
	ErrAttemptNotActive   = errors.New("no active attempt")
	ErrAttemptFinalized   = errors.New("attempt already submitted")
	ErrQuestionOutOfRange = errors.New("question index out of range")
)

// liveAttempt is one in-memory session plus the identifiers needed to persist
// its result. The mutex serializes all access to the session, including the
// timer expiry path.
type liveAttempt struct {
	mu        sync.Mutex
	session   *assessment.Session
	attemptID uuid.UUID
	quizID    uuid.UUID
	userID    int
	quizTitle string
	testType  model.TestType
	result    *assessment.Result
	expired   bool
	done      chan struct{} // closed once the attempt is finalized
}

// AnswerPayload is the autosave queue item consumed by the autosave worker.
// An empty Answer means the row should be deleted.
type AnswerPayload struct {
	AttemptID string `json:"attempt_id"`
	QID       string `json:"q_id"`
	Answer    string `json:"answer"`
}

// ResultPayload is the result queue item consumed by the result worker.
type ResultPayload struct {
	AttemptID        string          `json:"attempt_id"`
	QuizID           string          `json:"quiz_id"`
	UserID           int             `json:"user_id"`
	QuizTitle        string          `json:"quiz_title"`
	Correct          int             `json:"correct"`
	Incorrect        int             `json:"incorrect"`
	Unanswered       int             `json:"unanswered"`
	TotalScore       int             `json:"total_score"`
	MaxScore         int             `json:"max_score"`
	TimeTakenSeconds int             `json:"time_taken_seconds"`
	FinishedAt       time.Time       `json:"finished_at"`
	Result           json.RawMessage `json:"result"`
}

// AttemptService hosts live assessment sessions. Each active attempt lives in
// memory with its own countdown goroutine; Redis mirrors the answers so an
// interrupted attempt can resume after a restart.
type AttemptService struct {
	attemptRepo *repository.AttemptRepository
	quizzes     *QuizService
	rdb         *redis.Client
	log         zerolog.Logger

	mu   sync.RWMutex
	live map[uuid.UUID]*liveAttempt

	runCtx context.Context
}

// NewAttemptService creates a new AttemptService. runCtx bounds the timer
// goroutines; cancel it on shutdown.
func NewAttemptService(runCtx context.Context, attemptRepo *repository.AttemptRepository, quizzes *QuizService, rdb *redis.Client, log zerolog.Logger) *AttemptService {
	return &AttemptService{
		attemptRepo: attemptRepo,
		quizzes:     quizzes,
		rdb:         rdb,
		log:         log.With().Str("component", "attempt_service").Logger(),
		live:        make(map[uuid.UUID]*liveAttempt),
		runCtx:      runCtx,
	}
}

// Start begins a new attempt at a quiz, or resumes the in-progress one. On a
// retake the stored row is reset, so every answer starts cleared.
func (s *AttemptService) Start(ctx context.Context, quizID uuid.UUID, userID int) (*model.AttemptStartResponse, error) {
	payload, err := s.quizzes.GetPayload(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz payload: %w", err)
	}

	// An in-progress attempt resumes instead of restarting.
	existing, err := s.attemptRepo.GetByQuizAndUser(ctx, quizID, userID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing attempt: %w", err)
	}
	if existing != nil && existing.Status == model.AttemptStatusInProgress {
		return s.resume(ctx, existing, payload)
	}

	attempt := &model.Attempt{QuizID: quizID, UserID: userID}
	if err := s.attemptRepo.Start(ctx, attempt); err != nil {
		return nil, fmt.Errorf("start attempt: %w", err)
	}

	questions, err := s.buildQuestions(ctx, payload)
	if err != nil {
		return nil, err
	}

	durationSeconds := payload.DurationMinutes * 60
	session, err := assessment.NewSession(questions, durationSeconds)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.register(attempt, payload, session)

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.AttemptStartKey(attempt.ID.String()), attempt.StartedAt.Unix(), 0)
	pipe.Del(ctx, config.CacheKey.AttemptAnswersKey(attempt.ID.String()))
	pipe.Set(ctx, config.CacheKey.UserActiveAttemptKey(userID), attempt.ID.String(), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Failed to mirror attempt start")
	}

	session.Timer().Start()
	go session.Timer().Run(s.runCtx)

	return &model.AttemptStartResponse{
		AttemptID:        attempt.ID,
		Quiz:             *payload,
		RemainingSeconds: session.Timer().Remaining(),
	}, nil
}

// resume rebuilds a live session for an interrupted attempt: answers come from
// the Redis mirror (or the durable autosave rows), the countdown picks up at
// duration minus wall-clock elapsed. A fully elapsed attempt is finalized on
// the spot instead of resuming.
func (s *AttemptService) resume(ctx context.Context, attempt *model.Attempt, payload *model.QuizPayload) (*model.AttemptStartResponse, error) {
	s.mu.RLock()
	la, ok := s.live[attempt.ID]
	s.mu.RUnlock()
	if ok {
		la.mu.Lock()
		remaining := la.session.Timer().Remaining()
		la.mu.Unlock()
		return &model.AttemptStartResponse{
			AttemptID:        attempt.ID,
			Quiz:             *payload,
			RemainingSeconds: remaining,
			Resumed:          true,
		}, nil
	}

	questions, err := s.buildQuestions(ctx, payload)
	if err != nil {
		return nil, err
	}

	durationSeconds := payload.DurationMinutes * 60
	session, err := assessment.NewSession(questions, durationSeconds)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	answers, err := s.loadAutosavedAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}
	for qid, ans := range answers {
		_ = session.SetAnswer(qid, ans)
	}

	startUnix := s.loadStartTime(ctx, attempt)
	elapsed := int(time.Since(time.Unix(startUnix, 0)).Seconds())
	remaining := durationSeconds - elapsed

	la = s.register(attempt, payload, session)

	if remaining <= 0 {
		// The clock ran out while the process was down.
		session.Timer().StartAt(0)
		la.mu.Lock()
		_, ferr := s.finalize(la, true)
		la.mu.Unlock()
		if ferr != nil {
			return nil, ferr
		}
		return nil, ErrAttemptFinalized
	}

	session.Timer().StartAt(remaining)
	go session.Timer().Run(s.runCtx)

	return &model.AttemptStartResponse{
		AttemptID:        attempt.ID,
		Quiz:             *payload,
		RemainingSeconds: remaining,
		Resumed:          true,
	}, nil
}

// register inserts the live attempt into the map and hooks the expiry path.
func (s *AttemptService) register(attempt *model.Attempt, payload *model.QuizPayload, session *assessment.Session) *liveAttempt {
	la := &liveAttempt{
		session:   session,
		attemptID: attempt.ID,
		quizID:    attempt.QuizID,
		userID:    attempt.UserID,
		quizTitle: payload.Title,
		testType:  payload.TestType,
		done:      make(chan struct{}),
	}

	session.Timer().OnExpire(func() {
		go s.expire(la)
	})

	s.mu.Lock()
	s.live[attempt.ID] = la
	s.mu.Unlock()
	return la
}

// buildQuestions reconstructs the full question set from the cached payload
// and answer key hash, avoiding a PostgreSQL read on the hot path.
func (s *AttemptService) buildQuestions(ctx context.Context, payload *model.QuizPayload) ([]assessment.Question, error) {
	key, err := s.quizzes.GetAnswerKey(ctx, payload.QuizID)
	if err != nil {
		return nil, fmt.Errorf("get answer key: %w", err)
	}

	questions := make([]assessment.Question, len(payload.Questions))
	for i, q := range payload.Questions {
		questions[i] = assessment.Question{
			ID:            q.ID,
			Subject:       q.Subject,
			QuestionText:  q.QuestionText,
			Options:       q.Options,
			CorrectAnswer: key[q.ID],
		}
	}
	return questions, nil
}

func (s *AttemptService) loadAutosavedAnswers(ctx context.Context, attemptID uuid.UUID) (map[string]string, error) {
	answers, err := s.rdb.HGetAll(ctx, config.CacheKey.AttemptAnswersKey(attemptID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("load autosaved answers: %w", err)
	}
	if len(answers) > 0 {
		return answers, nil
	}
	// Redis lost the hash; fall back to the durable autosave rows.
	return s.attemptRepo.GetAutosavedAnswers(ctx, attemptID)
}

func (s *AttemptService) loadStartTime(ctx context.Context, attempt *model.Attempt) int64 {
	val, err := s.rdb.Get(ctx, config.CacheKey.AttemptStartKey(attempt.ID.String())).Result()
	if err == nil {
		if unix, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			return unix
		}
	}
	// Self-heal from the row.
	unix := attempt.StartedAt.Unix()
	_ = s.rdb.Set(ctx, config.CacheKey.AttemptStartKey(attempt.ID.String()), unix, 0).Err()
	return unix
}

// withLive runs fn with the attempt's lock held. Ownership is checked so a
// user can only touch their own attempt.
func (s *AttemptService) withLive(attemptID uuid.UUID, userID int, fn func(*liveAttempt) error) error {
	s.mu.RLock()
	la, ok := s.live[attemptID]
	s.mu.RUnlock()
	if !ok || la.userID != userID {
		return ErrAttemptNotActive
	}

	la.mu.Lock()
	defer la.mu.Unlock()
	if la.session.Finalized() {
		return ErrAttemptFinalized
	}
	return fn(la)
}

// Answer records an option and mirrors it to Redis and the autosave queue.
func (s *AttemptService) Answer(ctx context.Context, attemptID uuid.UUID, userID int, questionID, answer string) error {
	return s.withLive(attemptID, userID, func(la *liveAttempt) error {
		if err := la.session.SetAnswer(questionID, answer); err != nil {
			return err
		}
		s.queueAutosave(ctx, la.attemptID, questionID, answer)
		return nil
	})
}

// ClearAnswer removes an answer and mirrors the removal.
func (s *AttemptService) ClearAnswer(ctx context.Context, attemptID uuid.UUID, userID int, questionID string) error {
	return s.withLive(attemptID, userID, func(la *liveAttempt) error {
		if err := la.session.ClearAnswer(questionID); err != nil {
			return err
		}
		s.rdb.HDel(ctx, config.CacheKey.AttemptAnswersKey(la.attemptID.String()), questionID)
		s.queueAutosave(ctx, la.attemptID, questionID, "")
		return nil
	})
}

// ToggleMark flips the marked-for-review flag.
func (s *AttemptService) ToggleMark(attemptID uuid.UUID, userID int, questionID string) error {
	return s.withLive(attemptID, userID, func(la *liveAttempt) error {
		return la.session.ToggleMark(questionID)
	})
}

// Next advances to the next question, optionally marking the current one
// first.
func (s *AttemptService) Next(attemptID uuid.UUID, userID int, mark bool) error {
	return s.withLive(attemptID, userID, func(la *liveAttempt) error {
		return la.session.Advance(mark)
	})
}

// Previous moves back one question.
func (s *AttemptService) Previous(attemptID uuid.UUID, userID int) error {
	return s.withLive(attemptID, userID, func(la *liveAttempt) error {
		return la.session.Previous()
	})
}

// GoTo jumps to a question by index.
func (s *AttemptService) GoTo(attemptID uuid.UUID, userID int, index int) error {
	err := s.withLive(attemptID, userID, func(la *liveAttempt) error {
		return la.session.GoTo(index)
	})
	if errors.Is(err, assessment.ErrIndexOutOfRange) {
		return ErrQuestionOutOfRange
	}
	return err
}

// LiveState is a point-in-time snapshot of a running attempt.
type LiveState struct {
	CurrentIndex     int                                  `json:"current_index"`
	RemainingSeconds int                                  `json:"remaining_seconds"`
	Sections         []assessment.SubjectSection          `json:"sections"`
	Statuses         map[string]assessment.QuestionStatus `json:"statuses"`
	Counts           assessment.StatusCounts              `json:"counts"`
}

// State returns the live view of an attempt.
func (s *AttemptService) State(attemptID uuid.UUID, userID int) (*LiveState, error) {
	var state *LiveState
	err := s.withLive(attemptID, userID, func(la *liveAttempt) error {
		statuses := make(map[string]assessment.QuestionStatus, la.session.Len())
		for _, q := range la.session.Questions() {
			statuses[q.ID] = la.session.StatusOf(q.ID)
		}
		state = &LiveState{
			CurrentIndex:     la.session.CurrentIndex(),
			RemainingSeconds: la.session.Timer().Remaining(),
			Sections:         la.session.Sections(),
			Statuses:         statuses,
			Counts:           la.session.StatusCounts(),
		}
		return nil
	})
	return state, err
}

// Submit finalizes an attempt manually and returns the scored result.
func (s *AttemptService) Submit(attemptID uuid.UUID, userID int) (*assessment.Result, error) {
	s.mu.RLock()
	la, ok := s.live[attemptID]
	s.mu.RUnlock()
	if !ok || la.userID != userID {
		return nil, ErrAttemptNotActive
	}

	la.mu.Lock()
	defer la.mu.Unlock()
	if la.session.Finalized() {
		return nil, ErrAttemptFinalized
	}
	return s.finalize(la, false)
}

// Expired returns a channel closed when the attempt finalizes (submit or
// expiry), plus the final result once available.
func (s *AttemptService) Expired(attemptID uuid.UUID, userID int) (<-chan struct{}, bool) {
	s.mu.RLock()
	la, ok := s.live[attemptID]
	s.mu.RUnlock()
	if !ok || la.userID != userID {
		return nil, false
	}
	return la.done, true
}

// FinalResult returns the attempt's result after finalization, and whether it
// was produced by expiry rather than manual submit.
func (s *AttemptService) FinalResult(attemptID uuid.UUID, userID int) (*assessment.Result, bool, error) {
	s.mu.RLock()
	la, ok := s.live[attemptID]
	s.mu.RUnlock()
	if !ok || la.userID != userID {
		return nil, false, ErrAttemptNotActive
	}

	la.mu.Lock()
	defer la.mu.Unlock()
	if la.result == nil {
		return nil, false, ErrAttemptNotActive
	}
	return la.result, la.expired, nil
}

// expire is the countdown's end-of-time path. It grades whatever answers were
// saved up to that point; losing the race against a manual submit is fine.
func (s *AttemptService) expire(la *liveAttempt) {
	la.mu.Lock()
	defer la.mu.Unlock()
	if la.session.Finalized() {
		return
	}
	if _, err := s.finalize(la, true); err != nil {
		s.log.Error().Err(err).Str("attempt_id", la.attemptID.String()).Msg("Expiry finalize failed")
	}
}

// finalize grades the session and queues the result for persistence. Caller
// holds la.mu.
func (s *AttemptService) finalize(la *liveAttempt, expired bool) (*assessment.Result, error) {
	result, err := la.session.Finalize(assessment.ResultMeta{
		AttemptID: la.attemptID.String(),
		QuizID:    la.quizID.String(),
		TestType:  string(la.testType),
		TestTitle: la.quizTitle,
	})
	if err != nil {
		return nil, err
	}

	la.result = result
	la.expired = expired
	close(la.done)

	s.queueResult(la, result)

	ctx := context.Background()
	s.rdb.Del(ctx,
		config.CacheKey.UserActiveAttemptKey(la.userID),
		config.CacheKey.AttemptStartKey(la.attemptID.String()),
	)

	s.mu.Lock()
	delete(s.live, la.attemptID)
	s.mu.Unlock()

	s.log.Info().
		Str("attempt_id", la.attemptID.String()).
		Bool("expired", expired).
		Int("total_score", result.Score.TotalScore).
		Msg("Attempt finalized")
	return result, nil
}

func (s *AttemptService) queueAutosave(ctx context.Context, attemptID uuid.UUID, questionID, answer string) {
	key := config.CacheKey.AttemptAnswersKey(attemptID.String())
	if answer != "" {
		s.rdb.HSet(ctx, key, questionID, answer)
	}

	raw, err := json.Marshal(AnswerPayload{
		AttemptID: attemptID.String(),
		QID:       questionID,
		Answer:    answer,
	})
	if err != nil {
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, raw).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Failed to queue autosave")
	}
}

func (s *AttemptService) queueResult(la *liveAttempt, result *assessment.Result) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		s.log.Error().Err(err).Str("attempt_id", la.attemptID.String()).Msg("Failed to marshal result")
		return
	}

	raw, err := json.Marshal(ResultPayload{
		AttemptID:        la.attemptID.String(),
		QuizID:           la.quizID.String(),
		UserID:           la.userID,
		QuizTitle:        la.quizTitle,
		Correct:          result.Score.Correct,
		Incorrect:        result.Score.Incorrect,
		Unanswered:       result.Score.Unanswered,
		TotalScore:       result.Score.TotalScore,
		MaxScore:         result.Score.MaxScore,
		TimeTakenSeconds: result.TimeTakenSeconds,
		FinishedAt:       result.DateCompleted,
		Result:           resultJSON,
	})
	if err != nil {
		return
	}

	ctx := context.Background()
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		s.log.Error().Err(err).Str("attempt_id", la.attemptID.String()).Msg("Failed to queue result")
	}
}

// GetResult loads a stored attempt with its result snapshot and the derived
// subject breakdown.
func (s *AttemptService) GetResult(ctx context.Context, attemptID uuid.UUID, userID int) (*model.AttemptResultResponse, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, pgx.ErrNoRows
	}

	result, err := s.attemptRepo.GetResult(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	resp := &model.AttemptResultResponse{Attempt: *attempt, Result: result}
	if result != nil {
		resp.Breakdown = assessment.SubjectBreakdown(result.Questions)
	}
	return resp, nil
}

// ListResults retrieves a user's completed attempts, newest first.
func (s *AttemptService) ListResults(ctx context.Context, userID, page, perPage int) ([]model.Attempt, int, error) {
	offset := (page - 1) * perPage
	return s.attemptRepo.ListByUser(ctx, userID, perPage, offset)
}
