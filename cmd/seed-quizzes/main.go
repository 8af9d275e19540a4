package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/testprepai/testprep-backend/internal/config"
	"github.com/testprepai/testprep-backend/internal/database"
	"github.com/testprepai/testprep-backend/internal/logger"
	"github.com/testprepai/testprep-backend/internal/model"
	"github.com/testprepai/testprep-backend/internal/repository"
	"github.com/testprepai/testprep-backend/internal/service"
)

// seedFile mirrors the generator output in an editable fixture format.
type seedFile struct {
	OwnerID int        `yaml:"owner_id"`
	Quizzes []seedQuiz `yaml:"quizzes"`
}

type seedQuiz struct {
	Title           string         `yaml:"title"`
	TestType        string         `yaml:"test_type"`
	DurationMinutes int            `yaml:"duration_minutes"`
	Questions       []seedQuestion `yaml:"questions"`
}

type seedQuestion struct {
	ID            string   `yaml:"id"`
	Subject       string   `yaml:"subject"`
	QuestionText  string   `yaml:"question_text"`
	Options       []string `yaml:"options"`
	CorrectAnswer string   `yaml:"correct_answer"`
}

func main() {
	var fixturePath string
	flag.StringVar(&fixturePath, "file", "fixtures/quizzes.yaml", "Path to the quiz fixture file")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	raw, err := os.ReadFile(fixturePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", fixturePath).Msg("Failed to read fixture")
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse fixture YAML")
	}
	if seed.OwnerID <= 0 {
		log.Fatal().Msg("Fixture must set owner_id to an existing user")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	quizRepo := repository.NewQuizRepository(pool)
	quizService := service.NewQuizService(quizRepo, rdb, log)

	fmt.Printf("=== Seeding %d Quizzes ===\n", len(seed.Quizzes))

	successCount := 0
	for _, sq := range seed.Quizzes {
		req := &model.CreateQuizRequest{
			Title:           sq.Title,
			TestType:        model.TestType(sq.TestType),
			DurationMinutes: sq.DurationMinutes,
			Questions:       make([]model.QuizQuestionInput, len(sq.Questions)),
		}
		for i, q := range sq.Questions {
			req.Questions[i] = model.QuizQuestionInput{
				ID:            q.ID,
				Subject:       q.Subject,
				QuestionText:  q.QuestionText,
				Options:       q.Options,
				CorrectAnswer: q.CorrectAnswer,
			}
		}

		quiz, err := quizService.Create(ctx, seed.OwnerID, req)
		if err != nil {
			fmt.Printf("Error creating quiz %q: %v\n", sq.Title, err)
			continue
		}
		successCount++
		fmt.Printf("Created quiz %q (%s, %d questions)\n", quiz.Title, quiz.ID, quiz.QuestionCount)
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d quizzes.\n", successCount, len(seed.Quizzes))
}
