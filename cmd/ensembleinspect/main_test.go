package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/ensemblectl/internal/config"
	"github.com/danmuck/ensemblectl/internal/ensemble"
	"github.com/danmuck/ensemblectl/internal/layout"
	"github.com/danmuck/ensemblectl/internal/models/modeltest"
	"github.com/danmuck/ensemblectl/internal/rng"
	"github.com/danmuck/ensemblectl/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func buildTiny(t *testing.T, n int) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "ens")
	cfg := config.Defaults()
	cfg.DestinationPath = root
	cfg.InputSize = 28
	cfg.NumClasses = 4
	cfg.NumModels = n
	cfg.Architecture = modeltest.TinyID
	_, err := ensemble.NewOrchestrator(modeltest.Registry(), rng.MathRand{}).Build(context.Background(), cfg)
	require.NoError(t, err)
	return root
}

func TestInspectEnsembleTOML(t *testing.T) {
	testlog.Start(t)
	root := buildTiny(t, 3)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-format", "toml", root}, modeltest.Registry(), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var rep report
	_, err := toml.Decode(stdout.String(), &rep)
	require.NoError(t, err)
	require.Equal(t, root, rep.Root)
	require.Len(t, rep.Members, 3)
	require.Equal(t, 2, rep.Members[2].Index)
	require.Equal(t, 28, rep.Members[0].InputSize)
	require.Equal(t, modeltest.TinyID, rep.Members[1].Architecture)
	require.NotEqual(t, rep.Members[0].StateXXHash, rep.Members[1].StateXXHash)
}

func TestInspectSingleCheckpointText(t *testing.T) {
	testlog.Start(t)
	root := buildTiny(t, 1)

	var stdout, stderr bytes.Buffer
	code := run([]string{layout.CheckpointPath(root, 0)}, modeltest.Registry(), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Contains(t, stdout.String(), "1 member(s)")
	require.True(t, strings.Contains(stdout.String(), modeltest.TinyID))
}

func TestInspectFailures(t *testing.T) {
	testlog.Start(t)
	root := buildTiny(t, 2)
	require.NoError(t, os.Remove(layout.CheckpointPath(root, 1)))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, run([]string{root}, modeltest.Registry(), &stdout, &stderr))
	require.Contains(t, stderr.String(), "incomplete")

	require.Equal(t, 2, run([]string{}, modeltest.Registry(), &stdout, &stderr))
	require.Equal(t, 2, run([]string{"-format", "yaml", root}, modeltest.Registry(), &stdout, &stderr))
	require.Equal(t, 1, run([]string{filepath.Join(root, "missing")}, modeltest.Registry(), &stdout, &stderr))
}
