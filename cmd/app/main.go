package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"WorkoutTracker/internal/config"
	"WorkoutTracker/internal/repository"
	"WorkoutTracker/internal/service"
	externalHttp "WorkoutTracker/internal/transport/http"
	"WorkoutTracker/pkg/cache"
	"WorkoutTracker/pkg/logger"
	"WorkoutTracker/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// логгер ещё не создан
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to create logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log.Info("config loaded", zap.String("environment", cfg.Environment), zap.Bool("production", cfg.IsProduction()))

	// подключаем Postgres
	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		log.Fatal("failed to connect to Postgres", zap.Error(err))
	}
	defer func() { _ = db.Close() }()
	if err := db.Ping(); err != nil {
		log.Fatal("failed to ping Postgres", zap.Error(err))
	}

	// Применяем миграции Postgres с помощью golang-migrate
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal("failed to create migrate driver", zap.Error(err))
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+cfg.MigrationsPath+"/postgres", "postgres", driver)
	if err != nil {
		log.Fatal("failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal("failed to apply migrations", zap.Error(err))
	}

	collector := metrics.NewCollector("workouts")

	// подключаем Redis, смену состояния breaker пишем в лог
	rClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	breaker := cache.DefaultBreakerSettings()
	breaker.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn("circuit breaker state changed", zap.String("name", name), zap.Stringer("from", from), zap.Stringer("to", to))
	}
	cacheClient := cache.NewRedisClientWithBreaker(rClient, breaker)

	// подключаем NATS
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatal("failed to connect to NATS", zap.Error(err))
	}
	events := logger.NewClient(nc, cfg.NATSSubject)
	log.Info("publishing events", zap.String("subject", events.Subject()))

	// создаем репозиторий и сервис
	repo := repository.NewWorkoutRepository(db)
	srv := service.NewWorkoutService(repo, cacheClient, events, collector, log, cfg.RedisTTL)

	// настраиваем HTTP маршруты и middleware
	r := mux.NewRouter()
	r.Use(externalHttp.LoggingMiddleware(log))
	r.Use(externalHttp.MetricsMiddleware(collector))
	h := externalHttp.NewHandler(srv, log, db.PingContext)
	h.RegisterRoutes(r)
	r.Handle("/metrics", collector.Handler()).Methods("GET")

	// запускаем HTTP сервер с поддержкой graceful shutdown
	srvHTTP := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("starting server", zap.String("addr", cfg.HTTPAddr))
		if err := srvHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srvHTTP.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	if err := rClient.Close(); err != nil {
		log.Warn("failed to close Redis client", zap.Error(err))
	}
	// дренируем NATS, чтобы отправить уже опубликованные события
	if err := nc.Drain(); err != nil {
		log.Warn("failed to drain NATS connection", zap.Error(err))
	}
	log.Info("server exited properly")
}
