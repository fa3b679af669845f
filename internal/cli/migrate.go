package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/idfuturestars/StarGuideAI/internal/app"
	"github.com/idfuturestars/StarGuideAI/internal/config"
	"github.com/idfuturestars/StarGuideAI/internal/infra/database"
	"github.com/idfuturestars/StarGuideAI/internal/questionbank"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}

// NewSeedCmd loads the built-in question bank into an empty database and
// opens a weekly tournament when none is running.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the built-in question bank and a weekly tournament when missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()
			store := database.NewStore(db)
			if err := seedQuestions(cmd.Context(), store, log); err != nil {
				return err
			}
			_, err = app.NewTournamentService(store, log).EnsureWeekly(cmd.Context())
			return err
		},
	}
}

// NewImportQuestionsCmd imports a CSV or XLSX question bank.
func NewImportQuestionsCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import-questions",
		Short: "Import questions from a .csv or .xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			report, err := questionbank.ReadFile(file)
			if err != nil {
				return err
			}
			for _, skipped := range report.Skipped {
				log.WithField("row", skipped.Row).Warn(skipped.Reason)
			}

			db, err := openDatabase(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := database.NewStore(db).InsertQuestions(cmd.Context(), report.Questions)
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"imported": n, "skipped": len(report.Skipped)}).Info("questions imported")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "question bank file (.csv or .xlsx)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// openDatabase connects and applies pending migrations.
func openDatabase(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*bun.DB, error) {
	db, err := database.Open(ctx, cfg.Database.Driver, cfg.DSN())
	if err != nil {
		return nil, err
	}
	group, err := database.Migrate(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if group != "" {
		log.WithField("group", group).Info("migrations applied")
	}
	return db, nil
}

func seedQuestions(ctx context.Context, bank questionbank.Bank, log logrus.FieldLogger) error {
	n, err := questionbank.SeedIfEmpty(ctx, bank)
	if err != nil {
		return fmt.Errorf("seed questions: %w", err)
	}
	if n > 0 {
		log.WithField("count", n).Info("question bank seeded")
	}
	return nil
}
