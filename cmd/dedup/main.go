// Package main implements the one-shot legacy review deduplication tool.
// It collapses duplicate legacy review documents down to one canonical
// document per (professor, reviewer) pair, keeping the most recently
// updated one. By default it reports what it would change; pass --apply
// to persist the rewrite.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/config"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/repository/postgres"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/service"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/database"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/logger"
)

func main() {
	apply := flag.Bool("apply", false, "persist the deduplication; without this flag the run is a dry run")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("planner-reviews-dedup", cfg.LogLevel)
	log.Info("starting legacy review deduplication",
		slog.Bool("apply", *apply),
		slog.String("database", cfg.PostgresDB),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connectCancel()

	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(connectCtx, &pgCfg)
	if err != nil {
		log.Error("failed to connect to postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	legacyRepo := postgres.NewLegacyReviewRepository(pool)
	dedup := service.NewDedupService(legacyRepo, log)

	summary, err := dedup.Run(ctx, *apply)
	if err != nil {
		log.Error("deduplication failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.Error("failed to encode summary", slog.String("error", err.Error()))
		os.Exit(1)
	}
	os.Stdout.Write(out)
	os.Stdout.WriteString("\n")

	if !*apply {
		log.Info("dry run complete, re-run with --apply to persist changes")
	}
}
