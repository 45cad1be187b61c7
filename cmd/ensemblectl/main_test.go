package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/ensemblectl/internal/checkpoint"
	"github.com/danmuck/ensemblectl/internal/layout"
	"github.com/danmuck/ensemblectl/internal/models/modeltest"
	"github.com/danmuck/ensemblectl/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func TestRunBuildsEnsembleAndLogsCommand(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	root := filepath.Join(dir, "ens")
	hist := filepath.Join(dir, "CMDs", "setup.cmd")
	metrics := filepath.Join(dir, "ensemble.prom")
	argv := []string{
		"ensemblectl", root, "32", "10", "2",
		"--arch", modeltest.TinyID, "--history_file", hist, "--metrics_file", metrics,
	}

	var stderr bytes.Buffer
	code := run(context.Background(), argv, modeltest.Registry(), &stderr)
	require.Equal(t, 0, code, stderr.String())

	for i := 0; i < 2; i++ {
		cp, err := checkpoint.Read(layout.CheckpointPath(root, i))
		require.NoError(t, err)
		require.Equal(t, modeltest.TinyID, cp.Architecture)
		require.Equal(t, 32, cp.InputSize)
	}

	logged, err := os.ReadFile(hist)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(logged), strings.Join(argv, " ")+"\n"))

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	require.Contains(t, string(prom), "ensemble_setup_members_total")
}

func TestRunConflictExitsNonZero(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	root := filepath.Join(dir, "ens")
	require.NoError(t, os.MkdirAll(root, 0o755))
	hist := filepath.Join(dir, "setup.cmd")

	var stderr bytes.Buffer
	code := run(context.Background(), []string{
		"ensemblectl", root, "32", "10", "2", "--arch", modeltest.TinyID, "--history_file", hist,
	}, modeltest.Registry(), &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "destination directory exists")
	require.Contains(t, stderr.String(), "--override_directory")

	// the invocation is logged even though the run failed
	_, err := os.Stat(hist)
	require.NoError(t, err)
}

func TestRunUsageErrorExitsTwoWithoutLogging(t *testing.T) {
	testlog.Start(t)
	hist := filepath.Join(t.TempDir(), "setup.cmd")

	var stderr bytes.Buffer
	code := run(context.Background(), []string{"ensemblectl", "--history_file", hist, "/tmp/ens"}, modeltest.Registry(), &stderr)
	require.Equal(t, 2, code)
	require.Contains(t, stderr.String(), "expected 4 positional arguments")
	_, err := os.Stat(hist)
	require.True(t, os.IsNotExist(err))
}
