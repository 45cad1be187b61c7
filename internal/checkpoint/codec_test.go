package checkpoint

import (
	"archive/tar"
	"bytes"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/ensemblectl/internal/models"
	"github.com/danmuck/ensemblectl/internal/models/modeltest"
	"github.com/danmuck/ensemblectl/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func tinyModel(t *testing.T, seed int64, classes int) *models.Model {
	t.Helper()
	m, err := modeltest.Registry().Create(modeltest.TinyID, models.Options{NumClasses: classes}, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return m
}

func tinyMeta() Metadata {
	return Metadata{Architecture: modeltest.TinyID, NumChannels: 3, NumClasses: 10, SmallInputs: false, InputSize: 32}
}

func TestWriteReadRoundTrip(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "model.tar")
	m := tinyModel(t, 0, 10)

	require.NoError(t, Write(path, m, tinyMeta()))

	cp, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, tinyMeta(), cp.Metadata)
	require.Equal(t, int64(m.NumParams()), cp.ParamCount)
	require.NotZero(t, cp.StateHash)

	restored, err := cp.Restore(modeltest.Registry())
	require.NoError(t, err)
	require.True(t, restored.Equal(m))
}

func TestRoundTripPreservesSpecialFloats(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "model.tar")
	m := tinyModel(t, 1, 2)
	m.Params[0].Data[0] = float32(math.Copysign(0, -1))
	m.Params[0].Data[1] = 1e-45
	m.Params[0].Data[2] = 3.4028235e38

	meta := tinyMeta()
	meta.NumClasses = 2
	require.NoError(t, Write(path, m, meta))
	cp, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, m.Params[0].Data, cp.State[0].Data)
	require.True(t, math.Signbit(float64(cp.State[0].Data[0])))
}

func TestWriteIsByteStableForEqualModels(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.tar"), filepath.Join(dir, "b.tar")
	require.NoError(t, Write(a, tinyModel(t, 4, 10), tinyMeta()))
	require.NoError(t, Write(b, tinyModel(t, 4, 10), tinyMeta()))

	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	require.True(t, bytes.Equal(da, db))
}

func TestWriteRejectsInvalidInputAndLeavesNoFile(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "model.tar")

	require.ErrorIs(t, Write(path, nil, tinyMeta()), ErrInvalidInput)

	meta := tinyMeta()
	meta.InputSize = 0
	require.ErrorIs(t, Write(path, tinyModel(t, 0, 10), meta), ErrInvalidInput)

	meta = tinyMeta()
	meta.Architecture = "vgg16"
	require.ErrorIs(t, Write(path, tinyModel(t, 0, 10), meta), ErrInvalidInput)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestWriteIntoMissingDirectoryFails(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "missing", "model.tar")
	require.Error(t, Write(path, tinyModel(t, 0, 10), tinyMeta()))
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestReadMissingPath(t *testing.T) {
	testlog.Start(t)
	_, err := Read(filepath.Join(t.TempDir(), "nope.tar"))
	require.ErrorIs(t, err, ErrPathNotFound)
}

func TestReadCorruptInputs(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "good.tar")
	require.NoError(t, Write(good, tinyModel(t, 0, 10), tinyMeta()))
	raw, err := os.ReadFile(good)
	require.NoError(t, err)

	flipped := append([]byte(nil), raw...)
	// Blocks: meta header, meta body, state header, then the state body.
	flipped[3*512+512] ^= 0xff

	cases := map[string][]byte{
		"garbage":   []byte("definitely not a tar archive, but long enough to be read as one header block"),
		"truncated": raw[:len(raw)/2],
		"flipped":   flipped,
		"empty":     {},
	}
	for name, data := range cases {
		path := filepath.Join(dir, name+".tar")
		require.NoError(t, os.WriteFile(path, data, 0o644))
		_, err := Read(path)
		require.ErrorIs(t, err, ErrCorruptCheckpoint, name)
	}
}

func TestReadRejectsMissingMetadataField(t *testing.T) {
	testlog.Start(t)
	meta := []byte(`format = "` + FormatVersion + `"
architecture = "tiny"
n_channels = 3
num_classes = 10
small_inputs = false
param_count = 0
state_xxhash = "ef46db3751d8e999"
`)
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, writeEntry(tw, metaEntry, meta))
	require.NoError(t, writeEntry(tw, stateEntry, []byte{0x80}))
	require.NoError(t, tw.Close())

	path := filepath.Join(t.TempDir(), "model.tar")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err := Read(path)
	require.ErrorIs(t, err, ErrCorruptCheckpoint)
	require.Contains(t, err.Error(), `"n_in"`)
}

func TestReadRejectsUnexpectedEntry(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, writeEntry(tw, "extra.bin", []byte("x")))
	require.NoError(t, tw.Close())

	path := filepath.Join(t.TempDir(), "model.tar")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	_, err := Read(path)
	require.ErrorIs(t, err, ErrCorruptCheckpoint)
}

func TestRestoreRejectsUnknownArchitecture(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "model.tar")
	require.NoError(t, Write(path, tinyModel(t, 0, 10), tinyMeta()))
	cp, err := Read(path)
	require.NoError(t, err)

	_, err = cp.Restore(models.Default())
	require.ErrorIs(t, err, models.ErrUnsupportedArchitecture)
}
