package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/idfuturestars/StarGuideAI/internal/app"
	"github.com/idfuturestars/StarGuideAI/internal/config"
	"github.com/idfuturestars/StarGuideAI/internal/infra/database"
	"github.com/idfuturestars/StarGuideAI/internal/infra/memory"
	pgloader "github.com/idfuturestars/StarGuideAI/internal/infra/postgres"
	rediscache "github.com/idfuturestars/StarGuideAI/internal/infra/redis"
	"github.com/idfuturestars/StarGuideAI/internal/mentor"
	"github.com/idfuturestars/StarGuideAI/internal/relay"
	"github.com/idfuturestars/StarGuideAI/internal/scheduler"
	transport "github.com/idfuturestars/StarGuideAI/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the StarGuide server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// presenceStore is what the hub and the scheduler need from a tracker.
type presenceStore interface {
	relay.PresenceTracker
	scheduler.Pruner
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.PlaceholderSecret() {
		log.Warn("session secret is a placeholder; set " + config.EnvSessionSecret + " before exposing the server")
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()
	store := database.NewStore(db)
	if err := seedQuestions(ctx, store, log); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable at startup")
		}
	}

	var loader memory.QuestionLoader = store
	if cfg.Database.Driver == config.DriverPostgres {
		pool, err := pgxpool.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgloader.NewQuestionLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.CacheTTL, 10*time.Minute)
	var questionRepo app.QuestionRepository
	if redisClient != nil {
		questionRepo = rediscache.NewQuestionCache(redisClient, loader, config.TTLDuration(cfg.Redis.TTL, questionTTL))
	} else {
		questionRepo = memory.NewQuestionCache(loader, questionTTL)
	}

	presenceTTL := config.TTLDuration(cfg.Presence.TTL, 90*time.Second)
	var presence presenceStore
	if redisClient != nil {
		presence = rediscache.NewPresenceTracker(redisClient, presenceTTL)
	} else {
		presence = memory.NewPresenceTracker()
	}
	hub := relay.NewHub(presence, log)

	heartbeat := scheduler.New(hub, presence, config.TTLDuration(cfg.Presence.Heartbeat, 30*time.Second), presenceTTL, log)
	if err := heartbeat.Start(); err != nil {
		return err
	}
	defer heartbeat.Stop()

	questions := app.NewQuestionService(store, questionRepo, log)
	tournaments := app.NewTournamentService(store, log)
	if _, err := tournaments.EnsureWeekly(ctx); err != nil {
		log.WithError(err).Warn("open weekly tournament")
	}
	svc := transport.Services{
		Accounts:    app.NewAccountService(store, log),
		Questions:   questions,
		Assessments: app.NewAssessmentService(store, log),
		Pods:        app.NewPodService(store, log),
		Analytics:   app.NewAnalyticsService(store, log),
		Challenges:  app.NewChallengeService(store, log),
		Tournaments: tournaments,
		Help:        app.NewHelpService(store, log),
		Battles:     app.NewBattleService(questions, log),
		Mentor: mentor.New(mentor.Config{
			APIKey:  cfg.Mentor.APIKey,
			Model:   cfg.Mentor.Model,
			BaseURL: cfg.Mentor.BaseURL,
		}, log),
	}
	server := transport.NewServer(svc, hub, cfg.Server.SessionSecret, log)

	serveErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port":     finalPort,
			"database": cfg.Database.Driver,
			"redis":    redisClient != nil,
		}).Info("starting StarGuide server")
		serveErr <- server.Start(":" + finalPort)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	case err := <-serveErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
