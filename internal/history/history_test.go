package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendCreatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CMDs", "setup_ensemble.cmd")

	require.NoError(t, Append(path, []string{"ensemblectl", "/tmp/ens", "32", "10", "3"}))
	require.NoError(t, Append(path, []string{"ensemblectl", "/tmp/ens", "--override_directory"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "ensemblectl /tmp/ens 32 10 3\n" + separator + "\n" +
		"ensemblectl /tmp/ens --override_directory\n" + separator + "\n"
	require.Equal(t, want, string(data))
}

func TestAppendRejectsEmptyPath(t *testing.T) {
	require.Error(t, Append(" ", []string{"x"}))
}
