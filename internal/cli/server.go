package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/whalewalker/quizzer-frontend-sub000/internal/app"
	"github.com/whalewalker/quizzer-frontend-sub000/internal/config"
	"github.com/whalewalker/quizzer-frontend-sub000/internal/domain"
	"github.com/whalewalker/quizzer-frontend-sub000/internal/infra/httpapi"
	"github.com/whalewalker/quizzer-frontend-sub000/internal/infra/memory"
	pgloader "github.com/whalewalker/quizzer-frontend-sub000/internal/infra/postgres"
	redisinfra "github.com/whalewalker/quizzer-frontend-sub000/internal/infra/redis"
	transport "github.com/whalewalker/quizzer-frontend-sub000/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the attempt engine server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	// Drafts outlive quizzes by default; an abandoned attempt should
	// still resume the next day.
	draftTTL := config.TTLDuration(cfg.Draft.TTL, 24*time.Hour)
	var drafts app.DraftStore
	if redisClient != nil {
		drafts = redisinfra.NewDraftStore(redisClient, draftTTL)
	} else {
		drafts = memory.NewDraftStore()
	}

	var grader app.Grader = memory.NewGrader(quizRepo)
	if cfg.Grading.URL != "" {
		grader = httpapi.NewGradingClient(cfg.Grading.URL, nil)
	} else {
		log.Printf("no grading backend configured, grading locally")
	}

	var challenges app.ChallengeClient
	if cfg.Challenge.URL != "" {
		challenges = httpapi.NewChallengeClient(cfg.Challenge.URL, nil)
	}

	service := app.NewAttemptService(drafts, quizRepo, grader, challenges)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting attempt engine on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes provides demo content covering every question type;
// swap the loader for the Postgres-backed one in production.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:        "quiz-1",
			Type:      domain.QuizTimed,
			TimeLimit: 300,
			Title:     "Geography warm-up",
			Topic:     "geography",
			Questions: []domain.Question{
				{
					Type:          domain.TrueFalse,
					Prompt:        "The Nile flows north.",
					Options:       []string{"True", "False"},
					CorrectAnswer: *domain.SelectedAnswer(0),
				},
				{
					Type:          domain.SingleSelect,
					Prompt:        "Which of these is a capital city?",
					Options:       []string{"Sydney", "Canberra", "Melbourne"},
					CorrectAnswer: *domain.SelectedAnswer(1),
				},
				{
					Type:          domain.MultiSelect,
					Prompt:        "Which countries border France?",
					Options:       []string{"Spain", "Portugal", "Italy", "Germany"},
					CorrectAnswer: *domain.SelectionAnswer(0, 2, 3),
				},
				{
					Type:        domain.Matching,
					Prompt:      "Match each capital to its country.",
					LeftColumn:  []string{"Paris", "Rome"},
					RightColumn: []string{"France", "Italy"},
					CorrectAnswer: *domain.PairsAnswer(map[string]string{
						"Paris": "France",
						"Rome":  "Italy",
					}),
				},
				{
					Type:          domain.FillBlank,
					Prompt:        "The longest river in South America is the ____.",
					CorrectAnswer: *domain.TextAnswer("Amazon"),
				},
			},
		},
	}
}
