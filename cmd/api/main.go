package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/api/handlers"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/cache/redis"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/dataset"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/llm"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/metrics"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/middleware/ratelimit"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/middleware/security"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/middleware/validation"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/question"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/scoring"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/session"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/storage/sqlite"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/config"
	appLogger "github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Excel Mock Interviewer API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var payloadCache llm.PayloadCache
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, question cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			payloadCache = redisClient
		}
	}

	gateway := llm.NewGateway(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
		cfg.LLM.MaxRetries,
		payloadCache,
	)

	inspector := dataset.NewInspector(cfg.Dataset.Dir, cfg.Dataset.SampleRows)
	source := question.NewSource(gateway, sqliteClient, inspector, cfg.Interview.MinDifficulty, cfg.Interview.MaxDifficulty)
	pipeline := scoring.NewPipeline(gateway)
	summarizer := scoring.NewSummarizer(gateway)

	registry := session.NewRegistry(
		source,
		pipeline,
		summarizer,
		sqliteClient,
		cfg.Interview.QuestionCount,
		llm.Mode(cfg.Interview.Mode),
		time.Duration(cfg.Interview.SessionTTLMin)*time.Minute,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Logging.Level == "debug",
	}))
	app.Use(validation.Middleware(validation.Config{
		MaxAnswerChars: cfg.Interview.MaxAnswerChars,
		Logger:         appLogger.GetLogger(),
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 60,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	sessionHandler := handlers.NewSessionHandler(registry)
	wsHandler := handlers.NewWebSocketHandler(registry)

	api := app.Group("/api/v1")

	sessions := api.Group("/sessions", limiter.Middleware())
	sessions.Post("/", sessionHandler.CreateSession)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Post("/:id/answers", sessionHandler.SubmitAnswer)
	sessions.Post("/:id/finish", sessionHandler.FinishSession)
	sessions.Delete("/:id", sessionHandler.AbandonSession)
	sessions.Get("/:id/transcript.csv", sessionHandler.DownloadTranscript)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/interview", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
