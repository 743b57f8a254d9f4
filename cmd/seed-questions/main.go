package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stemsi/exproctor/internal/config"
	"github.com/stemsi/exproctor/internal/database"
	"github.com/stemsi/exproctor/internal/logger"
	"github.com/stemsi/exproctor/internal/model"
	"github.com/stemsi/exproctor/internal/repository"
)

// seedQuestion is one entry of the seed file:
//
//	[{"subject": "math", "question_text": "2+2?", "options": ["3","4"], "correct_answer": "4"}]
type seedQuestion struct {
	Subject       string          `json:"subject"`
	QuestionText  string          `json:"question_text"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer string          `json:"correct_answer"`
}

func main() {
	var file, subject string
	flag.StringVar(&file, "file", "questions.json", "Path to the JSON question file")
	flag.StringVar(&subject, "subject", "", "Subject applied to entries that do not set one")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	data, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read question file")
	}

	var entries []seedQuestion
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to parse question file")
	}

	questions := make([]model.Question, 0, len(entries))
	for i, e := range entries {
		if e.Subject == "" {
			e.Subject = subject
		}
		if e.Subject == "" || e.QuestionText == "" || e.CorrectAnswer == "" {
			fmt.Printf("Skipping entry %d: subject, question_text and correct_answer are required\n", i+1)
			continue
		}
		if len(e.Options) == 0 {
			e.Options = json.RawMessage("[]")
		}
		questions = append(questions, model.Question{
			Subject:       e.Subject,
			QuestionText:  e.QuestionText,
			Options:       e.Options,
			CorrectAnswer: e.CorrectAnswer,
		})
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	fmt.Printf("=== Seeding %d Questions ===\n", len(questions))

	n, err := repository.NewQuestionRepository(pool).CreateBatch(ctx, questions)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed questions")
	}

	for _, q := range questions {
		fmt.Printf("%s  [%s] %s\n", q.ID, q.Subject, q.QuestionText)
	}
	fmt.Printf("\nSeed completed! Successfully added %d/%d questions.\n", n, len(entries))
}
