// Command sessiond runs the session engine's background loops against Redis
// and serves an operator endpoint with health, metrics, statistics and the
// suspicious-session report.
//
//	REDIS_URL=redis://localhost:6379/0 SESSIOND_ADDR=:9090 go run ./cmd/sessiond
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/cache"
	"github.com/caarlos0/env/v11"
)

type daemonConfig struct {
	Addr            string        `env:"SESSIOND_ADDR" envDefault:":9090"`
	ShutdownTimeout time.Duration `env:"SESSIOND_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ReadTimeout     time.Duration `env:"SESSIOND_READ_TIMEOUT" envDefault:"5s"`
	// WriteTimeout bounds /stats, which walks the whole keyspace.
	WriteTimeout  time.Duration `env:"SESSIOND_WRITE_TIMEOUT" envDefault:"60s"`
	AuditToStdout bool          `env:"SESSIOND_AUDIT_STDOUT" envDefault:"false"`
	StrictLint    bool          `env:"SESSIOND_STRICT_LINT" envDefault:"false"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(logger); err != nil {
		logger.Error("sessiond stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := goSession.LoadConfig(".env")
	if err != nil {
		return fmt.Errorf("load engine config: %w", err)
	}
	var daemon daemonConfig
	if err := env.Parse(&daemon); err != nil {
		return fmt.Errorf("load daemon config: %w", err)
	}
	var redisCfg cache.RedisConfig
	if err := env.Parse(&redisCfg); err != nil {
		return fmt.Errorf("load redis config: %w", err)
	}

	lint := cfg.Lint()
	for _, w := range lint {
		logger.Warn("config lint", slog.String("code", w.Code), slog.String("severity", w.Severity.String()), slog.String("message", w.Message))
	}
	if daemon.StrictLint {
		if err := lint.AsError(goSession.LintHigh); err != nil {
			return err
		}
	}

	client, err := cache.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer client.Close()

	builder := goSession.New().
		WithConfig(cfg).
		WithRedis(client).
		WithLogger(logger)
	if daemon.AuditToStdout {
		builder.WithAuditSink(goSession.NewJSONWriterSink(os.Stdout))
	} else {
		builder.WithAuditSink(goSession.NewSlogSink(logger))
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Start(ctx); err != nil {
		return err
	}
	logger.Info("engine started",
		slog.Int("partitions", cfg.Cluster.EffectivePartitions()),
		slog.Bool("scheduler", cfg.Scheduler.Enabled),
	)

	srv := &http.Server{
		Addr:         daemon.Addr,
		Handler:      adminRouter(engine, logger),
		ReadTimeout:  daemon.ReadTimeout,
		WriteTimeout: daemon.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("admin server listening", slog.String("addr", daemon.Addr))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), daemon.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown admin server: %w", err)
	}
	return nil
}
