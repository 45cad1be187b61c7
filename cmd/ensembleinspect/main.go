package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/ensemblectl/internal/checkpoint"
	"github.com/danmuck/ensemblectl/internal/ensemble"
	"github.com/danmuck/ensemblectl/internal/logging"
	"github.com/danmuck/ensemblectl/internal/models"
)

type report struct {
	Root    string         `toml:"root"`
	Members []memberReport `toml:"members"`
}

type memberReport struct {
	Index        int    `toml:"index"`
	Path         string `toml:"path"`
	Architecture string `toml:"architecture"`
	NumChannels  int    `toml:"n_channels"`
	NumClasses   int    `toml:"num_classes"`
	SmallInputs  bool   `toml:"small_inputs"`
	InputSize    int    `toml:"n_in"`
	ParamCount   int64  `toml:"param_count"`
	StateXXHash  string `toml:"state_xxhash"`
}

func main() {
	logging.ConfigureRuntime()
	os.Exit(run(os.Args[1:], models.Default(), os.Stdout, os.Stderr))
}

func run(args []string, registry *models.Registry, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ensembleinspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	restore := fs.Bool("restore", true, "rebuild each model skeleton and load its state")
	format := fs.String("format", "text", "output format: text|toml")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: ensembleinspect [flags] <ensemble dir | model.tar>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	if *format != "text" && *format != "toml" {
		fmt.Fprintf(stderr, "ensembleinspect: unknown format %q\n", *format)
		return 2
	}

	var builder models.SkeletonBuilder
	if *restore {
		builder = registry
	}
	rep, err := inspect(fs.Arg(0), builder)
	if err != nil {
		fmt.Fprintf(stderr, "ensembleinspect: %v\n", err)
		return 1
	}

	if *format == "toml" {
		err = toml.NewEncoder(stdout).Encode(rep)
	} else {
		err = writeText(stdout, rep)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ensembleinspect: %v\n", err)
		return 1
	}
	return 0
}

func inspect(path string, builder models.SkeletonBuilder) (report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return report{}, err
	}
	if !info.IsDir() {
		cp, err := checkpoint.Read(path)
		if err != nil {
			return report{}, err
		}
		if builder != nil {
			if _, err := cp.Restore(builder); err != nil {
				return report{}, err
			}
		}
		return report{Root: path, Members: []memberReport{toReport(0, path, cp.Metadata, cp.ParamCount, cp.StateHash)}}, nil
	}

	summaries, err := ensemble.Verify(path, builder)
	if err != nil {
		return report{}, err
	}
	rep := report{Root: path, Members: make([]memberReport, 0, len(summaries))}
	for _, s := range summaries {
		rep.Members = append(rep.Members, toReport(s.Index, s.Path, s.Metadata, s.ParamCount, s.StateHash))
	}
	return rep, nil
}

func toReport(index int, path string, meta checkpoint.Metadata, params int64, hash uint64) memberReport {
	return memberReport{
		Index:        index,
		Path:         path,
		Architecture: meta.Architecture,
		NumChannels:  meta.NumChannels,
		NumClasses:   meta.NumClasses,
		SmallInputs:  meta.SmallInputs,
		InputSize:    meta.InputSize,
		ParamCount:   params,
		StateXXHash:  fmt.Sprintf("%016x", hash),
	}
}

func writeText(w io.Writer, rep report) error {
	fmt.Fprintf(w, "%s: %d member(s)\n", rep.Root, len(rep.Members))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tARCH\tN_CHANNELS\tNUM_CLASSES\tSMALL_INPUTS\tN_IN\tPARAMS\tXXHASH")
	for _, m := range rep.Members {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%t\t%d\t%d\t%s\n",
			m.Index, m.Architecture, m.NumChannels, m.NumClasses, m.SmallInputs, m.InputSize, m.ParamCount, m.StateXXHash)
	}
	return tw.Flush()
}
