package cli

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"christmas-quiz-service/internal/app"
	"christmas-quiz-service/internal/config"
	"christmas-quiz-service/internal/domain"
	"christmas-quiz-service/internal/infra/memory"
	pgstore "christmas-quiz-service/internal/infra/postgres"
	redisinfra "christmas-quiz-service/internal/infra/redis"
	transport "christmas-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	log := newLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var (
		bunDB *bun.DB
		pool  *pgxpool.Pool
	)
	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		bunDB = bun.NewDB(sqldb, pgdialect.New())
		defer bunDB.Close()

		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var store app.SessionStore = memory.NewSessionStore()
	if bunDB != nil {
		store = pgstore.NewSessionStore(bunDB)
	}

	catalog := memory.NewBankCatalog(sampleBankQuestions())
	var loader memory.BankLoader = catalog
	var bankStore app.BankStore = catalog
	if bunDB != nil {
		loader = pgstore.NewBankLoader(pool)
		bankStore = pgstore.NewBankStore(bunDB)
	}

	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	var bank app.QuestionBank
	var invalidate transport.BankInvalidator
	if redisClient != nil {
		cache := redisinfra.NewBankCache(redisClient, loader, bankTTL)
		bank, invalidate = cache, cache
	} else {
		cache := memory.NewBankCache(loader, bankTTL)
		bank, invalidate = cache, cache
	}

	var broadcaster app.Broadcaster = memory.NewBroadcaster()
	if redisClient != nil {
		broadcaster = redisinfra.NewBroadcaster(redisClient)
	}

	service := app.NewGameService(store, bank, broadcaster, log)
	router := transport.NewRouter(
		transport.NewSessionHandler(service),
		transport.NewAdminHandler(bankStore, invalidate),
		transport.NewWSHandler(service, broadcaster, log),
		log,
	)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: websocket connections outlive any sane value.
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting game server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleBankQuestions seeds the in-memory catalog so the server is playable
// without Postgres; production deployments load the bank from the database.
func sampleBankQuestions() []domain.BankQuestion {
	return []domain.BankQuestion{
		{
			ID:           "sample-q1",
			Type:         domain.TypeQuiz,
			Text:         "In which country did the Christmas tree tradition originate?",
			Options:      []string{"Norway", "Germany", "Russia", "Canada"},
			CorrectIndex: 1,
			Category:     "Traditions",
			IsActive:     true,
		},
		{
			ID:           "sample-q2",
			Type:         domain.TypeQuiz,
			Text:         "What do children traditionally leave out for Santa's reindeer?",
			Options:      []string{"Carrots", "Cookies", "Milk", "Hay"},
			CorrectIndex: 0,
			Category:     "Traditions",
			IsActive:     true,
		},
		{
			ID:           "sample-q3",
			Type:         domain.TypeQuiz,
			Text:         "How many reindeer pull Santa's sleigh, counting Rudolph?",
			Options:      []string{"7", "8", "9", "10"},
			CorrectIndex: 2,
			Category:     "Santa",
			IsActive:     true,
		},
		{
			ID:           "sample-q4",
			Type:         domain.TypeQuiz,
			Text:         "Which country started the tradition of sending Christmas cards?",
			Options:      []string{"United States", "France", "England", "Sweden"},
			CorrectIndex: 2,
			Category:     "History",
			IsActive:     true,
		},
		{
			ID:           "sample-q5",
			Type:         domain.TypeQuiz,
			Text:         "In 'Home Alone', where is the McCallister family going on vacation?",
			Options:      []string{"London", "New York", "Paris", "Miami"},
			CorrectIndex: 2,
			Category:     "Movies",
			IsActive:     true,
		},
		{
			ID:             "sample-b1",
			Type:           domain.TypeBlindtest,
			Options:        []string{"All I Want for Christmas Is You", "Last Christmas", "Jingle Bell Rock", "Santa Tell Me"},
			CorrectIndex:   0,
			Category:       "Pop",
			IsActive:       true,
			YouTubeVideoID: "aAkMkVFwAoo",
			AudioStartTime: 5,
			AudioEndTime:   20,
			SongTitle:      "All I Want for Christmas Is You",
			SongArtist:     "Mariah Carey",
		},
		{
			ID:             "sample-b2",
			Type:           domain.TypeBlindtest,
			Options:        []string{"Jingle Bells", "Last Christmas", "Let It Snow", "White Christmas"},
			CorrectIndex:   1,
			Category:       "Pop",
			IsActive:       true,
			YouTubeVideoID: "E8gmARGvPlI",
			AudioStartTime: 0,
			AudioEndTime:   15,
			SongTitle:      "Last Christmas",
			SongArtist:     "Wham!",
		},
	}
}
