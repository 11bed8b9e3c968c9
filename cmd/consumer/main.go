package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/ClickHouse/clickhouse-go"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/clickhouse"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"WorkoutTracker/internal/config"
	"WorkoutTracker/internal/consumer"
	"WorkoutTracker/internal/repository"
	"WorkoutTracker/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to create logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	log = log.With(zap.String("process", "consumer"))
	defer func() { _ = log.Sync() }()
	log.Info("config loaded", zap.String("environment", cfg.Environment), zap.Int("batch_size", cfg.BatchSize), zap.Duration("flush_interval", cfg.FlushInterval))

	// Подключаемся к NATS
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatal("failed to connect to NATS", zap.Error(err))
	}
	defer nc.Close()

	// Подключаемся к ClickHouse
	db, err := sql.Open("clickhouse", cfg.ClickhouseDSN)
	if err != nil {
		log.Fatal("failed to connect to ClickHouse", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	// Применяем миграции ClickHouse с помощью golang-migrate
	driver, err := clickhouse.WithInstance(db, &clickhouse.Config{})
	if err != nil {
		log.Fatal("failed to create ClickHouse migrate driver", zap.Error(err))
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+cfg.MigrationsPath+"/clickhouse", "clickhouse", driver)
	if err != nil {
		log.Fatal("failed to create ClickHouse migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal("failed to apply ClickHouse migrations", zap.Error(err))
	}

	repo := repository.NewClickhouseRepo(db, log)
	cons := consumer.NewConsumer(repo, log, cfg.BatchSize)

	ctx, stopFlush := context.WithCancel(context.Background())
	go cons.Run(ctx, cfg.FlushInterval)

	// HTTP-сервер для healthz и readyz
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !nc.IsConnected() {
			writeStatus(w, http.StatusServiceUnavailable, "nats disconnected")
			return
		}
		if err := db.PingContext(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "clickhouse unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	healthSrv := &http.Server{Addr: ":" + cfg.ConsumerPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("starting health server", zap.String("port", cfg.ConsumerPort))
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("health server failed", zap.Error(err))
		}
	}()

	sub, err := logger.Subscribe(ctx, nc, cfg.NATSSubject, log, cons.HandleMessage)
	if err != nil {
		log.Fatal("failed to subscribe", zap.Error(err))
	}

	// Ждём сигнала завершения
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down consumer")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("health server shutdown failed", zap.Error(err))
	}

	// Отписываемся и сбрасываем оставшиеся события
	if err := sub.Unsubscribe(); err != nil {
		log.Warn("failed to unsubscribe", zap.Error(err))
	}
	stopFlush()
	if err := cons.Flush(shutdownCtx); err != nil {
		log.Error("failed to flush consumer events", zap.Error(err))
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
