package server

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// SeedDemo creates a demo admin with a game code and a few quizzes if no
// admins exist. Idempotent: does nothing on a populated database.
func SeedDemo(ctx context.Context, logger *slog.Logger, store Store) error {
	count, err := store.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminID, err := store.CreateAdmin(ctx, "demo", "Demo Admin", string(hash))
	if err != nil {
		return err
	}

	code, err := generateGameCode()
	if err != nil {
		return err
	}
	if err := store.SetAdminGameCode(ctx, adminID, code); err != nil {
		return err
	}

	quizzes := []QuizInput{
		{
			Group:      "warmup",
			Title:      "Two plus two",
			Contents:   "What is 2 + 2?",
			OptionKind: "text",
			Option1:    "3",
			Option2:    "4",
			Option3:    "5",
			Option4:    "22",
			Answer:     "4",
		},
		{
			Group:      "warmup",
			Title:      "Capital of France",
			Contents:   "Which city is the capital of France?",
			OptionKind: "text",
			Option1:    "Lyon",
			Option2:    "Marseille",
			Option3:    "Paris",
			Option4:    "Nice",
			Answer:     "Paris",
		},
		{
			Group:      "science",
			Title:      "Water formula",
			Contents:   "What is the chemical formula of water?",
			OptionKind: "text",
			Option1:    "CO2",
			Option2:    "H2O",
			Option3:    "O2",
			Option4:    "NaCl",
			Answer:     "H2O",
		},
	}
	for _, q := range quizzes {
		if _, err := store.CreateQuiz(ctx, adminID, q); err != nil {
			return err
		}
	}

	logger.Info("demo admin created and seeded", "username", "demo", "game_code", code)
	return nil
}
