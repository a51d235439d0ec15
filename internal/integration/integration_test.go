package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"christmas-quiz-service/internal/app"
	"christmas-quiz-service/internal/domain"
	pgstore "christmas-quiz-service/internal/infra/postgres"
	pgmigrations "christmas-quiz-service/internal/infra/postgres/migrations"
	infraredis "christmas-quiz-service/internal/infra/redis"
)

func TestGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(t, ctx, pgURL)
	defer db.Close()
	seedBank(t, ctx, db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	store := pgstore.NewSessionStore(db)
	bank := infraredis.NewBankCache(redisClient, pgstore.NewBankLoader(pool), 5*time.Minute)
	relay := infraredis.NewBroadcaster(redisClient)
	service := app.NewGameService(store, bank, relay, zerolog.Nop())

	session, err := service.CreateSession(ctx, app.CreateSessionParams{
		GameMode:     domain.ModeQuiz,
		HostNickname: "Host",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.TotalQuestions != 2 {
		t.Fatalf("expected 2 seeded questions, got %d", session.TotalQuestions)
	}

	events, cancel, err := relay.Subscribe(ctx, session.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	alice, err := service.Join(ctx, session.ID, "Alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.Join(ctx, session.ID, "alice"); err != domain.ErrNicknameTaken {
		t.Fatalf("expected nickname conflict, got %v", err)
	}
	expectEvent(t, events, domain.EventPlayerJoined)

	if _, err := service.Start(ctx, session.ID, session.HostID); err != nil {
		t.Fatalf("start: %v", err)
	}
	expectEvent(t, events, domain.EventGameStarted)
	expectEvent(t, events, domain.EventNewQuestion)
	expectEvent(t, events, domain.EventNewQuestionHost)

	question := session.Questions[0]
	result, err := service.SubmitAnswer(ctx, session.ID, app.SubmitAnswerParams{
		PlayerID:     alice.ID,
		QuestionID:   question.ID,
		Value:        strconv.Itoa(question.CorrectIndex),
		ResponseTime: 5000,
	})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !result.IsCorrect || result.PointsAwarded != 875 {
		t.Fatalf("unexpected answer result %+v", result)
	}
	expectEvent(t, events, domain.EventAnswerReceived)

	// The unique index backs the dedup, not just app logic.
	if _, err := service.SubmitAnswer(ctx, session.ID, app.SubmitAnswerParams{
		PlayerID:     alice.ID,
		QuestionID:   question.ID,
		Value:        "0",
		ResponseTime: 6000,
	}); err != domain.ErrAlreadyAnswered {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}

	reveal, err := service.Next(ctx, session.ID, session.HostID, app.ActionAdvance)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if reveal.Status != domain.StatusReveal || reveal.Reveal.Stats.CorrectAnswers != 1 {
		t.Fatalf("unexpected reveal %+v", reveal)
	}
	expectEvent(t, events, domain.EventQuestionEnded)

	lb, err := service.Next(ctx, session.ID, session.HostID, app.ActionAdvance)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Leaderboard) != 1 || lb.Leaderboard[0].PlayerID != alice.ID || lb.Leaderboard[0].Score != 875 {
		t.Fatalf("unexpected leaderboard %+v", lb.Leaderboard)
	}
	expectEvent(t, events, domain.EventLeaderboardUpdate)

	if _, err := service.Next(ctx, session.ID, session.HostID, app.ActionAdvance); err != nil {
		t.Fatalf("advance: %v", err)
	}
	expectEvent(t, events, domain.EventNewQuestion)
	expectEvent(t, events, domain.EventNewQuestionHost)

	stopped, err := service.Stop(ctx, session.ID, session.HostID)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopped.Winner == nil || stopped.Winner.PlayerID != alice.ID {
		t.Fatalf("unexpected winner %+v", stopped.Winner)
	}
	expectEvent(t, events, domain.EventGameStopped)
	expectEvent(t, events, domain.EventGameFinished)
}

func expectEvent(t *testing.T, events <-chan domain.Envelope, name string) {
	t.Helper()
	select {
	case env := <-events:
		if env.Event != name {
			t.Fatalf("expected %s, got %s", name, env.Event)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", name)
	}
}

func openBun(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedBank(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	bank := pgstore.NewBankStore(db)
	err := bank.ImportBankQuestions(ctx, []domain.BankQuestion{
		{ID: "b1", Type: domain.TypeQuiz, Text: "First?", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 1, IsActive: true},
		{ID: "b2", Type: domain.TypeQuiz, Text: "Second?", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2, IsActive: true},
		{ID: "b3", Type: domain.TypeQuiz, Text: "Retired?", Options: []string{"a", "b"}, CorrectIndex: 0, IsActive: false},
	})
	if err != nil {
		t.Fatalf("seed bank: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
