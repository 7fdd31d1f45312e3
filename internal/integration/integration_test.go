package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"github.com/whalewalker/quizzer-frontend-sub000/internal/app"
	"github.com/whalewalker/quizzer-frontend-sub000/internal/domain"
	"github.com/whalewalker/quizzer-frontend-sub000/internal/infra/memory"
	pgloader "github.com/whalewalker/quizzer-frontend-sub000/internal/infra/postgres"
	pgmigrations "github.com/whalewalker/quizzer-frontend-sub000/internal/infra/postgres/migrations"
	infraredis "github.com/whalewalker/quizzer-frontend-sub000/internal/infra/redis"
)

func TestAttemptEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuiz(t, ctx, pgURL, sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	quizRepo := infraredis.NewQuizRepository(redisClient, pgloader.NewQuizLoader(pool), 5*time.Minute)
	drafts := infraredis.NewDraftStore(redisClient, time.Hour)
	grader := memory.NewGrader(quizRepo)
	service := app.NewAttemptService(drafts, quizRepo, grader, nil)

	// First session: answer one question, then walk away.
	attempt, err := service.Start(ctx, "quiz-1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := attempt.Answer(ctx, 0, domain.SelectedAnswer(1)); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := attempt.Navigate(ctx, 1); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	attempt.Stop()

	// Second session resumes from the persisted draft.
	resumed, err := service.Start(ctx, "quiz-1", "")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	snap := resumed.Snapshot()
	if snap.CurrentIndex != 1 {
		t.Fatalf("expected cursor 1 after resume, got %d", snap.CurrentIndex)
	}
	if snap.Answers[0] == nil || snap.Answers[0].Selected != 1 {
		t.Fatalf("expected first answer recovered, got %+v", snap.Answers[0])
	}
	if resumed.TimerState() != app.TimerRunning || snap.Remaining <= 0 {
		t.Fatalf("expected running countdown, got %s remaining=%d", resumed.TimerState(), snap.Remaining)
	}

	if err := resumed.Answer(ctx, 1, domain.TextAnswer("paris")); err != nil {
		t.Fatalf("answer 2: %v", err)
	}
	outcome, err := resumed.Submit(ctx, false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Result.Score != 2 || outcome.Result.TotalQuestions != 2 {
		t.Fatalf("expected 2/2, got %+v", outcome.Result)
	}
	if len(outcome.Review) != 2 || !outcome.Review[1].Correct {
		t.Fatalf("expected full review, got %+v", outcome.Review)
	}

	// Submission clears every persisted field for the quiz.
	for _, key := range []string{"quiz:quiz-1:answers", "quiz:quiz-1:cursor", "quiz:quiz-1:remaining", "quiz:quiz-1:savedAt"} {
		n, err := redisClient.Exists(ctx, key).Result()
		if err != nil {
			t.Fatalf("exists %s: %v", key, err)
		}
		if n != 0 {
			t.Fatalf("expected %s cleared after submission", key)
		}
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

func seedQuiz(t *testing.T, ctx context.Context, dsn string, quiz domain.Quiz) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO quizzes (id, data) VALUES (? , ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, quiz.ID, string(data)); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        "quiz-1",
		Type:      domain.QuizTimed,
		TimeLimit: 300,
		Title:     "World facts",
		Questions: []domain.Question{
			{
				Type:          domain.SingleSelect,
				Prompt:        "What is 2 + 2?",
				Options:       []string{"3", "4", "5"},
				CorrectAnswer: *domain.SelectedAnswer(1),
			},
			{
				Type:          domain.FillBlank,
				Prompt:        "Capital of France?",
				CorrectAnswer: *domain.TextAnswer("Paris"),
			},
		},
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
