package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"christmas-quiz-service/internal/config"
	pgstore "christmas-quiz-service/internal/infra/postgres"
)

// NewSeedCmd loads question-bank entries into Postgres, either the built-in
// sample set or a JSON file of bank questions.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			questions := sampleBankQuestions()
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				questions = nil
				if err := json.Unmarshal(data, &questions); err != nil {
					return fmt.Errorf("parse %s: %w", file, err)
				}
			}
			for i := range questions {
				if questions[i].ID == "" {
					questions[i].ID = uuid.NewString()
				}
			}

			sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
			db := bun.NewDB(sqldb, pgdialect.New())
			defer db.Close()

			if err := pgstore.NewBankStore(db).ImportBankQuestions(cmd.Context(), questions); err != nil {
				return err
			}
			logger := newLogger()
			logger.Info().Int("questions", len(questions)).Msg("question bank seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON file of bank questions (defaults to built-in samples)")
	return cmd
}
