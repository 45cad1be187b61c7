package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/ensemblectl/internal/ensemble"
	"github.com/danmuck/ensemblectl/internal/history"
	"github.com/danmuck/ensemblectl/internal/logging"
	"github.com/danmuck/ensemblectl/internal/models"
	"github.com/danmuck/ensemblectl/internal/observability"
	"github.com/danmuck/ensemblectl/internal/rng"
	"github.com/rs/zerolog/log"
)

func main() {
	logging.ConfigureRuntime()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, models.Default(), os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, argv []string, registry *models.Registry, stderr io.Writer) int {
	inv, err := parseArgs(argv[1:], registry.IDs(), stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "ensemblectl: %v\n", err)
		var usage *usageError
		if errors.As(err, &usage) {
			return 2
		}
		return 1
	}

	if err := history.Append(inv.HistoryFile, argv); err != nil {
		fmt.Fprintf(stderr, "ensemblectl: %v\n", err)
		return 1
	}

	orch := ensemble.NewOrchestrator(registry, rng.MathRand{})
	res, buildErr := orch.Build(ctx, inv.Ensemble)

	if inv.MetricsFile != "" {
		if err := observability.WriteTextfile(inv.MetricsFile); err != nil {
			log.Warn().Err(err).Str("path", inv.MetricsFile).Msg("metrics textfile not written")
		}
	}
	if buildErr != nil {
		fmt.Fprintf(stderr, "ensemblectl: %v\n", buildErr)
		return 1
	}
	log.Info().
		Str("run_id", res.RunID).
		Str("root", res.Root).
		Int("members", len(res.Members)).
		Msg("ensemble ready")
	return 0
}
