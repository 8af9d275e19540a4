package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testprepai/testprep-backend/internal/config"
	"github.com/testprepai/testprep-backend/internal/service"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ResultWorker consumes persist_results_queue: it writes graded results to
// the attempts table in bulk, creates the result notification, and clears
// the autosave state that the completed attempt no longer needs.
type ResultWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewResultWorker creates a new ResultWorker.
func NewResultWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "result_worker").Logger(),
	}
}

// Start begins the batching worker loop. Call in a goroutine.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	batch := make([]*service.ResultPayload, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p service.ResultPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

// flushSafe attempts the bulk path, then falls back row by row, requeueing
// anything that still fails.
func (w *ResultWorker) flushSafe(ctx context.Context, batch []*service.ResultPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkComplete(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk update failed, using fallback")

		for _, p := range batch {
			if err := w.persistSingle(ctx, p); err != nil {
				w.log.Error().Err(err).Str("attempt_id", p.AttemptID).Msg("persistSingle failed — requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
				continue
			}
			w.notifyAndCleanup(ctx, p)
		}
		return
	}

	for _, p := range batch {
		w.notifyAndCleanup(ctx, p)
	}
}

// bulkComplete updates all attempt rows in one UNNEST statement.
func (w *ResultWorker) bulkComplete(ctx context.Context, batch []*service.ResultPayload) error {
	n := len(batch)

	attemptIDs := make([]uuid.UUID, 0, n)
	corrects := make([]int, 0, n)
	incorrects := make([]int, 0, n)
	unanswereds := make([]int, 0, n)
	totals := make([]int, 0, n)
	maxes := make([]int, 0, n)
	timeTakens := make([]int, 0, n)
	finishedAts := make([]time.Time, 0, n)
	results := make([]string, 0, n)

	for _, p := range batch {
		aID, err := uuid.Parse(p.AttemptID)
		if err != nil {
			return err
		}
		attemptIDs = append(attemptIDs, aID)
		corrects = append(corrects, p.Correct)
		incorrects = append(incorrects, p.Incorrect)
		unanswereds = append(unanswereds, p.Unanswered)
		totals = append(totals, p.TotalScore)
		maxes = append(maxes, p.MaxScore)
		timeTakens = append(timeTakens, p.TimeTakenSeconds)
		finishedAts = append(finishedAts, p.FinishedAt)
		results = append(results, string(p.Result))
	}

	query := `
		UPDATE attempts AS a
		SET status = 'COMPLETED',
		    correct = t.correct,
		    incorrect = t.incorrect,
		    unanswered = t.unanswered,
		    total_score = t.total_score,
		    max_score = t.max_score,
		    time_taken_seconds = t.time_taken_seconds,
		    finished_at = t.finished_at,
		    result = t.result::jsonb
		FROM (
			SELECT
				u.attempt_id,
				u.correct,
				u.incorrect,
				u.unanswered,
				u.total_score,
				u.max_score,
				u.time_taken_seconds,
				u.finished_at,
				u.result
			FROM UNNEST(
				$1::uuid[],
				$2::int[],
				$3::int[],
				$4::int[],
				$5::int[],
				$6::int[],
				$7::int[],
				$8::timestamptz[],
				$9::text[]
			) AS u (attempt_id, correct, incorrect, unanswered, total_score, max_score, time_taken_seconds, finished_at, result)
		) AS t
		WHERE a.id = t.attempt_id
	`

	_, err := w.pool.Exec(ctx, query,
		attemptIDs, corrects, incorrects, unanswereds, totals, maxes, timeTakens, finishedAts, results)
	return err
}

// persistSingle is the row-by-row fallback.
func (w *ResultWorker) persistSingle(ctx context.Context, p *service.ResultPayload) error {
	aID, err := uuid.Parse(p.AttemptID)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = 'COMPLETED',
		     correct = $1, incorrect = $2, unanswered = $3,
		     total_score = $4, max_score = $5,
		     time_taken_seconds = $6, finished_at = $7,
		     result = $8::jsonb
		 WHERE id = $9`,
		p.Correct, p.Incorrect, p.Unanswered,
		p.TotalScore, p.MaxScore,
		p.TimeTakenSeconds, p.FinishedAt,
		string(p.Result), aID,
	)
	return err
}

// notifyAndCleanup writes the result notification and drops autosave state
// for a completed attempt. Best effort: a failure here never requeues the
// already-persisted result.
func (w *ResultWorker) notifyAndCleanup(ctx context.Context, p *service.ResultPayload) {
	body := fmt.Sprintf("You scored %d out of %d on %q.", p.TotalScore, p.MaxScore, p.QuizTitle)
	if _, err := w.pool.Exec(ctx,
		`INSERT INTO notifications (user_id, title, body) VALUES ($1, $2, $3)`,
		p.UserID, "Result ready", body,
	); err != nil {
		w.log.Error().Err(err).Str("attempt_id", p.AttemptID).Msg("Notification insert failed")
	}

	if aID, err := uuid.Parse(p.AttemptID); err == nil {
		if _, err := w.pool.Exec(ctx,
			`DELETE FROM attempt_answers WHERE attempt_id = $1`, aID,
		); err != nil {
			w.log.Error().Err(err).Str("attempt_id", p.AttemptID).Msg("Autosave cleanup failed")
		}
	}

	w.rdb.Del(ctx, config.CacheKey.AttemptAnswersKey(p.AttemptID))
}
