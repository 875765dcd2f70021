package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ride-planner/internal/auth"
	"ride-planner/internal/board"
	"ride-planner/internal/dayplan"
	"ride-planner/internal/drivers"
	"ride-planner/internal/livefeed"
	"ride-planner/internal/rides"
	"ride-planner/migrations"
	"ride-planner/pkg/config"
	"ride-planner/pkg/db"
	"ride-planner/pkg/jwt"
	"ride-planner/pkg/kafka"
	"ride-planner/pkg/logger"
	rredis "ride-planner/pkg/redis"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── 1. Config + logging ──
	cfg := config.Load()
	log := logger.New("ride-planner", cfg.LogLevel)
	loc := cfg.Location()

	fatal := func(msg string, err error) {
		log.Error(msg, "error", err)
		os.Exit(1)
	}

	// ── 2. JWT secret ──
	if err := jwt.Init(cfg.JWTSecret, cfg.TokenTTL); err != nil {
		fatal("jwt init", err)
	}

	// ── 3. PostgreSQL ──
	database, err := db.Connect(ctx, cfg.DatabaseURL, log)
	if err != nil {
		fatal("postgres connect", err)
	}
	defer database.Close()

	if err := database.RunMigrations(ctx, migrations.FS); err != nil {
		fatal("migrations failed", err)
	}

	// ── 4. Redis ──
	redisClient, err := rredis.NewClient(ctx, cfg.RedisAddr, log)
	if err != nil {
		fatal("redis connect", err)
	}
	defer redisClient.Close()

	// The drivers table is edited out of band; start from a cold cache.
	if err := redisClient.InvalidateDrivers(ctx); err != nil {
		log.Warn("could not clear driver cache", "error", err)
	}

	// ── 5. Kafka ──
	kafkaClient := kafka.NewClient(cfg.KafkaBrokers, log)
	defer kafkaClient.Close()

	if err := kafkaClient.EnsureTopics(ctx, kafka.RideTopics...); err != nil {
		fatal("kafka topics", err)
	}

	// ── 6. Services ──
	directory := drivers.NewDirectory(drivers.NewPGStore(database.Pool), redisClient, cfg.DriverCacheTTL, log)
	authSvc := auth.NewService(auth.NewPGAccounts(database.Pool), directory, log)
	rideSvc := rides.NewService(rides.NewPGStore(database.Pool), kafkaClient, log)

	// ── 7. Board sessions ──
	boards := board.NewRegistry(cfg.BoardIdleTTL, func(me drivers.Driver) *board.Controller {
		return board.NewController(me, rideSvc, directory, log, board.Options{
			Retries:  cfg.LoadRetries,
			Location: loc,
		})
	})
	go boards.Run(ctx, 10*time.Minute)

	// ── 8. Live feed ──
	feed := livefeed.NewHub(log)
	feed.Start(ctx, kafkaClient)

	// ── 9. HTTP router ──
	today := func() dayplan.Date { return dayplan.Today(time.Now(), loc) }
	guard := auth.Guard(authSvc)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(jwt.OptionalAuth)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"ride-planner"}`))
	})

	r.Mount("/auth", auth.NewHandler(authSvc, cfg.CookieSecure, boards.Drop).Routes())
	r.Group(func(r chi.Router) {
		r.Use(guard)
		r.Mount("/drivers", drivers.NewHandler(directory).Routes())
		r.Mount("/rides", rides.NewHandler(rideSvc, today).Routes())
		r.Mount("/board", board.NewHandler(boards, log).Routes())
		r.Mount("/ws", feed.Routes())
	})

	// ── 10. Start server ──
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		log.Info("ride-planner listening", "port", cfg.Port, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal("http server", err)
		}
	}()

	// ── 11. Graceful shutdown ──
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	srv.Shutdown(shutCtx)
	cancel() // stop consumers and the board sweeper
}
