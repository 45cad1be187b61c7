package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/danmuck/ensemblectl/internal/config"
)

// usageError marks invocation problems that exit with status 2.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type invocation struct {
	Ensemble    config.Ensemble
	ConfigFile  string
	HistoryFile string
	MetricsFile string
}

// parseArgs resolves defaults, then the optional config file, then explicit
// flags. Positional arguments and flags may be interleaved.
func parseArgs(args []string, archs []string, out io.Writer) (invocation, error) {
	fs := flag.NewFlagSet("ensemblectl", flag.ContinueOnError)
	fs.SetOutput(out)

	arch := fs.String("arch", config.DefaultArchitecture, "architecture: "+strings.Join(archs, "|"))
	channels := fs.Int("n_channels", config.DefaultNumChannels, "number of image channels")
	small := fs.Bool("small_inputs", false, "set up the model for small inputs")
	override := fs.Bool("override_directory", false, "remove an existing destination directory first")
	workers := fs.Int("workers", config.DefaultWorkers, "members generated concurrently")
	configFile := fs.String("config", "", "optional TOML options file")
	historyFile := fs.String("history_file", config.DefaultHistoryFile, "append-only command log")
	metricsFile := fs.String("metrics_file", "", "write prometheus metrics here when done")
	fs.Usage = func() {
		fmt.Fprintln(out, "usage: ensemblectl [flags] destination_path n_in num_classes num_models")
		fs.PrintDefaults()
	}

	args, trailing := cutDoubleDash(args)
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return invocation{}, err
			}
			return invocation{}, &usageError{msg: err.Error()}
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
	positional = append(positional, trailing...)

	if len(positional) != 4 {
		fs.Usage()
		return invocation{}, usagef("expected 4 positional arguments, got %d", len(positional))
	}

	inv := invocation{
		Ensemble:    config.Defaults(),
		HistoryFile: config.DefaultHistoryFile,
		ConfigFile:  *configFile,
	}
	dest, err := filepath.Abs(positional[0])
	if err != nil {
		return invocation{}, usagef("destination_path: %v", err)
	}
	inv.Ensemble.DestinationPath = dest
	ints := []struct {
		name string
		raw  string
		dst  *int
	}{
		{"n_in", positional[1], &inv.Ensemble.InputSize},
		{"num_classes", positional[2], &inv.Ensemble.NumClasses},
		{"num_models", positional[3], &inv.Ensemble.NumModels},
	}
	for _, p := range ints {
		v, err := strconv.Atoi(p.raw)
		if err != nil {
			return invocation{}, usagef("%s: invalid int value %q", p.name, p.raw)
		}
		*p.dst = v
	}

	if inv.ConfigFile != "" {
		file, err := config.LoadFile(inv.ConfigFile)
		if err != nil {
			return invocation{}, err
		}
		file.Apply(&inv.Ensemble)
		if file.HistoryFile != nil {
			inv.HistoryFile = *file.HistoryFile
		}
		if file.MetricsFile != nil {
			inv.MetricsFile = *file.MetricsFile
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "arch":
			inv.Ensemble.Architecture = *arch
		case "n_channels":
			inv.Ensemble.NumChannels = *channels
		case "small_inputs":
			inv.Ensemble.SmallInputs = *small
		case "override_directory":
			inv.Ensemble.OverrideExisting = *override
		case "workers":
			inv.Ensemble.Workers = *workers
		case "history_file":
			inv.HistoryFile = *historyFile
		case "metrics_file":
			inv.MetricsFile = *metricsFile
		}
	})

	if !slices.Contains(archs, inv.Ensemble.Architecture) {
		return invocation{}, usagef("--arch: invalid choice %q (choose from %s)", inv.Ensemble.Architecture, strings.Join(archs, ", "))
	}
	if err := inv.Ensemble.Validate(); err != nil {
		return invocation{}, &usageError{msg: err.Error()}
	}
	return inv, nil
}

// cutDoubleDash splits args at the first "--"; everything after it is positional.
func cutDoubleDash(args []string) ([]string, []string) {
	i := slices.Index(args, "--")
	if i < 0 {
		return args, nil
	}
	return args[:i], args[i+1:]
}
