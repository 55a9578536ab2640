package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"quiztaker/internal/app"
	"quiztaker/internal/config"
	"quiztaker/internal/domain"
	"quiztaker/internal/infra/httpapi"
	"quiztaker/internal/infra/memory"
	pgstore "quiztaker/internal/infra/postgres"
	redisstore "quiztaker/internal/infra/redis"
	"quiztaker/internal/infra/sqlite"
	"quiztaker/internal/logging"
	"quiztaker/internal/metrics"
)

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg config.Config, out io.Writer, service string) *logrus.Entry {
	return logging.NewWithOutput(out, service, cfg.Log.Level, cfg.Log.Format)
}

func listenPort(cfg config.Config, flag string) string {
	if flag != "" {
		return flag
	}
	if cfg.Server.Port != "" {
		return cfg.Server.Port
	}
	return "8080"
}

func newRedisClient(cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// newScratchStore opens the configured scratch store. The returned closer is never nil.
func newScratchStore(ctx context.Context, cfg config.Config) (app.ScratchStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Scratch.Driver {
	case "", "sqlite":
		store, err := sqlite.Open(ctx, cfg.Scratch.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("open scratch file %s: %w", cfg.Scratch.Path, err)
		}
		return store, store.Close, nil
	case "redis":
		client := newRedisClient(cfg)
		if client == nil {
			return nil, noop, fmt.Errorf("scratch driver redis needs redis.addr")
		}
		return redisstore.NewScratchStore(client, ""), client.Close, nil
	case "memory":
		return memory.NewScratchStore(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported scratch driver %q", cfg.Scratch.Driver)
	}
}

// quizBackend is where quiz content lives, plus what it needs for cleanup.
type quizBackend struct {
	source   memory.QuizLoader
	recorder *pgstore.SubmissionRecorder
	closers  []func()
}

func (b *quizBackend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// newQuizBackend picks Postgres when configured, else the seed file, else the
// built-in samples, and puts a Redis or in-memory TTL cache in front.
func newQuizBackend(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*quizBackend, error) {
	backend := &quizBackend{}

	var seed *memory.StaticQuizLoader
	if cfg.Quiz.SeedFile != "" {
		loaded, err := memory.LoadSeedFile(cfg.Quiz.SeedFile)
		if err != nil {
			return nil, err
		}
		seed = loaded
	}

	var loader memory.QuizLoader
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		backend.closers = append(backend.closers, pool.Close)
		db := openBun(cfg.Postgres.URL)
		backend.closers = append(backend.closers, func() { _ = db.Close() })
		backend.recorder = pgstore.NewSubmissionRecorder(db)
		pg := pgstore.NewQuizLoader(pool)
		if seed != nil {
			if err := seedPostgres(ctx, pg, seed); err != nil {
				backend.Close()
				return nil, err
			}
			log.WithField("seed_file", cfg.Quiz.SeedFile).Info("seeded quizzes into postgres")
		}
		loader = pg
	case seed != nil:
		loader = seed
	default:
		loader = memory.NewStaticQuizLoader(sampleQuizzes())
	}

	ttl := config.Duration(cfg.Quiz.TTL, 10*time.Minute)
	if client := newRedisClient(cfg); client != nil {
		backend.closers = append(backend.closers, func() { _ = client.Close() })
		backend.source = redisstore.NewQuizCache(client, loader, ttl)
	} else {
		backend.source = memory.NewQuizCache(loader, ttl)
	}
	return backend, nil
}

func seedPostgres(ctx context.Context, pg *pgstore.QuizLoader, seed *memory.StaticQuizLoader) error {
	for _, quiz := range seed.Quizzes() {
		if err := pg.SaveQuiz(ctx, quiz); err != nil {
			return err
		}
	}
	return nil
}

// newQuizAPI is the remote quiz service, or an in-process one for offline play.
func newQuizAPI(ctx context.Context, cfg config.Config, offline bool, log logrus.FieldLogger) (app.QuizAPI, func(), error) {
	if !offline {
		return httpapi.New(cfg.API.BaseURL, config.Duration(cfg.API.Timeout, 30*time.Second)), func() {}, nil
	}
	backend, err := newQuizBackend(ctx, cfg, log)
	if err != nil {
		return nil, func() {}, err
	}
	return memory.NewQuizAPI(backend.source, cfg.Quiz.RevealAnswers), backend.Close, nil
}

func newEngine(cfg config.Config, api app.QuizAPI, scratch app.ScratchStore, log logrus.FieldLogger, m *metrics.Metrics) *app.Engine {
	return app.NewEngine(api, scratch,
		app.WithLogger(log),
		app.WithMetrics(m),
		app.WithNamespace(cfg.Scratch.Namespace),
		app.WithTickInterval(config.Duration(cfg.Session.Tick, time.Second)),
		app.WithWarningBelow(cfg.Session.WarningBelow),
		app.WithCheckpointEvery(cfg.Session.CheckpointEvery),
	)
}

// sampleQuizzes provides a minimal set of quiz data for demos without a database.
func sampleQuizzes() map[string]domain.Quiz {
	intPtr := func(v int) *int { return &v }
	return map[string]domain.Quiz{
		"js-basics": {
			ID:          "js-basics",
			Title:       "Advanced JavaScript Concepts",
			Description: "Closures, prototypes and the event loop.",
			Difficulty:  "Intermediate",
			Duration:    10,
			ChoiceType:  domain.ChoiceMultiple,
			Questions: []domain.Question{
				{
					ID:           "q1",
					Text:         "What does typeof null return?",
					Options:      []string{"null", "object", "undefined", "number"},
					CorrectIndex: intPtr(1),
				},
				{
					ID:           "q2",
					Text:         "Which method adds an element to the end of an array?",
					Options:      []string{"shift()", "unshift()", "push()", "pop()"},
					CorrectIndex: intPtr(2),
				},
				{
					ID:           "q3",
					Text:         "Which keyword declares a block-scoped constant?",
					Options:      []string{"var", "let", "const", "static"},
					CorrectIndex: intPtr(2),
				},
			},
		},
		"go-facts": {
			ID:          "go-facts",
			Title:       "Go Facts",
			Description: "True or false?",
			Difficulty:  "Easy",
			ChoiceType:  domain.ChoiceTrueFalse,
			Questions: []domain.Question{
				{ID: "q1", Text: "Goroutines are OS threads.", CorrectAnswer: "False"},
				{ID: "q2", Text: "A nil map can be read from.", CorrectAnswer: "True"},
			},
		},
	}
}
