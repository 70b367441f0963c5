package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"peerprep/interview/internal/config"
	"peerprep/interview/internal/daily"
	"peerprep/interview/internal/events"
	"peerprep/interview/internal/gateway"
	"peerprep/interview/internal/handlers"
	"peerprep/interview/internal/interview"
	"peerprep/interview/internal/jobs"
	"peerprep/interview/internal/llm"
	_ "peerprep/interview/internal/llm/gemini"
	"peerprep/interview/internal/metrics"
	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/prompts"
	"peerprep/interview/internal/realtime"
	"peerprep/interview/internal/repositories"
	mongorepo "peerprep/interview/internal/repositories/mongo"
	sqlrepo "peerprep/interview/internal/repositories/sql"
	"peerprep/interview/internal/routers"
	"peerprep/interview/internal/speech"
	"peerprep/interview/internal/utils"
)

// stores bundles the persistence backend selected by STORE_DRIVER.
type stores struct {
	sessions repositories.SessionRepository
	daily    repositories.DailyRepository
	ping     handlers.Check
	close    func(ctx context.Context) error
}

func registerRoutes(router *chi.Mux, healthHandler *handlers.HealthHandler, interviewHandler *handlers.InterviewHandler, dailyHandler *handlers.DailyHandler, ws *realtime.Handler, jwtSecret string, logger *zap.Logger) {
	auth := middleware.RequireAuth(jwtSecret, logger)
	routers.HealthRoutes(router, healthHandler)
	routers.InterviewRoutes(router, interviewHandler, ws, auth)
	routers.DailyRoutes(router, dailyHandler, auth)
}

// Helper functions for environment variables
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// openStores connects the configured document store and returns its repositories.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := mongorepo.NewClient(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		db, err := client.DB()
		if err != nil {
			return nil, err
		}
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			return nil, fmt.Errorf("failed to create mongo indexes: %w", err)
		}
		return &stores{
			sessions: mongorepo.NewSessionRepo(db),
			daily:    mongorepo.NewDailyRepo(db),
			ping:     client.Ping,
			close:    client.Close,
		}, nil

	case config.StorePostgres, config.StoreSQLite:
		var db *gorm.DB
		var err error
		if cfg.StoreDriver == config.StorePostgres {
			db, err = sqlrepo.OpenPostgres(cfg.Postgres.DSN())
		} else {
			db, err = sqlrepo.OpenSQLite(cfg.SQLitePath)
		}
		if err != nil {
			return nil, err
		}
		return &stores{
			sessions: &sqlrepo.SessionRepository{DB: db},
			daily:    &sqlrepo.DailyRepository{DB: db},
			ping:     sqlrepo.Pinger{DB: db}.Ping,
			close: func(context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

// newChatStore picks the gateway conversation store.
func newChatStore(cfg *config.Config, rdb *redis.Client) gateway.ChatStore {
	if cfg.ChatBackend == config.ChatRedis && rdb != nil {
		return gateway.NewRedisChatStore(rdb, cfg.ChatHistoryTTL)
	}
	return gateway.NewMemoryChatStore(cfg.ChatHistoryTTL)
}

type chatClearer interface {
	ClearAll(ctx context.Context) error
}

// releaseChatHistory drops in-process chat histories on shutdown. A shared redis store is
// left alone because other instances may still be serving those sessions.
func releaseChatHistory(ctx context.Context, cfg *config.Config, chats chatClearer) error {
	if cfg.ChatBackend == config.ChatRedis {
		return nil
	}
	return chats.ClearAll(ctx)
}

func newTranscriber(ctx context.Context, cfg *config.Config, logger *zap.Logger) (speech.Transcriber, func() error) {
	if cfg.SpeechProvider != config.SpeechGCP {
		return speech.Disabled{}, func() error { return nil }
	}
	recognizer, err := speech.NewGCPRecognizer(ctx, speech.GCPConfig{
		LanguageCode:    cfg.SpeechLanguage,
		Encoding:        getEnv("SPEECH_ENCODING", "webm"),
		SampleRateHertz: getEnvInt("SPEECH_SAMPLE_RATE_HERTZ", 48000),
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize speech recognizer, voice answers disabled", zap.Error(err))
		return speech.Disabled{}, func() error { return nil }
	}
	return speech.NewService(recognizer), recognizer.Close
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.IsDevelopment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("provider", cfg.Provider),
		zap.String("store", cfg.StoreDriver),
		zap.String("chat_backend", cfg.ChatBackend),
		zap.String("speech", cfg.SpeechProvider))

	ctx := context.Background()

	store, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}

	checks := map[string]handlers.Check{"store": store.ping}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable at startup", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		logger.Fatal("Failed to initialize prompt manager", zap.Error(err))
	}

	provider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		logger.Fatal("Failed to initialize AI provider", zap.Error(err))
	}

	ai := gateway.New(provider, promptManager, newChatStore(cfg, rdb), logger, cfg.AICallTimeout)

	transcriber, closeTranscriber := newTranscriber(ctx, cfg, logger)

	var publisher events.Publisher = events.Nop{}
	var guard daily.Guard = daily.NewLocalGuard()
	if rdb != nil {
		publisher = events.NewRedisPublisher(rdb, cfg.EventsChannel)
		guard = daily.NewRedisGuard(rdb)
	}

	interviews := interview.NewService(interview.Options{
		Sessions:      store.sessions,
		AI:            ai,
		Transcriber:   transcriber,
		Publisher:     publisher,
		Logger:        logger.Named("interview"),
		AudioMaxBytes: cfg.AudioMaxBytes,
	})
	dailyService := daily.NewService(daily.Options{
		Repo:      store.daily,
		Generator: ai,
		Guard:     guard,
		Publisher: publisher,
		Logger:    logger.Named("daily"),
	})

	scheduler := jobs.NewScheduler(dailyService, ai, interviews, jobs.Config{
		DailyResetSchedule: cfg.DailyResetSchedule,
		SweepSchedule:      getEnv("SWEEP_SCHEDULE", jobs.DefaultSweepSchedule),
		TransientIdle:      getEnvDuration("TRANSIENT_IDLE_TIMEOUT", jobs.DefaultTransientIdle),
	}, logger.Named("jobs"))
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	hub := realtime.NewHub()
	wsHandler := realtime.NewHandler(interviews, hub, cfg.JWTSecret, cfg.CORSOrigins, logger.Named("ws"))

	router := chi.NewRouter()

	// cors middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Logger, chimiddleware.Recoverer)
	router.Use(metrics.Middleware("interview"))

	registerRoutes(router,
		handlers.NewHealthHandler(checks),
		handlers.NewInterviewHandler(interviews, logger),
		handlers.NewDailyHandler(dailyService, logger),
		wsHandler,
		cfg.JWTSecret,
		logger)

	serverAddr := ":" + cfg.Port

	// http server with timeouts; AI backed requests can take tens of seconds
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	// starting server in a goroutine
	go func() {
		logger.Info("Interview service starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shutdown the server
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("Interview service shutting down...")

	// graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.CloseAll()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	scheduler.Stop(shutdownCtx)
	if err := releaseChatHistory(shutdownCtx, cfg, ai); err != nil {
		logger.Warn("Failed to clear chat history", zap.Error(err))
	}

	if err := closeTranscriber(); err != nil {
		logger.Warn("Failed to close speech client", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if err := store.close(shutdownCtx); err != nil {
		logger.Warn("Failed to close store", zap.Error(err))
	}

	logger.Info("Interview service exited")
}
