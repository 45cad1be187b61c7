package checkpoint

import (
	"archive/tar"
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/danmuck/ensemblectl/internal/models"
	"github.com/fxamacker/cbor/v2"
	"github.com/pelletier/go-toml/v2"
)

const (
	metaEntry  = "meta.toml"
	stateEntry = "state.cbor"

	maxMetaSize = 64 << 10
)

// Fixed entry mtime keeps identical models byte-identical on disk.
var entryModTime = time.Unix(0, 0).UTC()

type metaDoc struct {
	Format       string  `toml:"format"`
	Architecture *string `toml:"architecture"`
	NumChannels  *int    `toml:"n_channels"`
	NumClasses   *int    `toml:"num_classes"`
	SmallInputs  *bool   `toml:"small_inputs"`
	InputSize    *int    `toml:"n_in"`
	ParamCount   *int64  `toml:"param_count"`
	StateXXHash  *string `toml:"state_xxhash"`
}

type stateTensor struct {
	Name  string `cbor:"name"`
	Shape []int  `cbor:"shape"`
	Data  []byte `cbor:"data"`
}

// Write stores model and meta at path. The file appears complete or not at all.
func Write(path string, model *models.Model, meta Metadata) error {
	if model == nil {
		return fmt.Errorf("%w: nil model", ErrInvalidInput)
	}
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if model.Arch != "" && model.Arch != meta.Architecture {
		return fmt.Errorf("%w: model arch %q does not match metadata %q", ErrInvalidInput, model.Arch, meta.Architecture)
	}

	state, err := encodeState(model.State())
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	metaBytes, err := encodeMeta(meta, int64(model.NumParams()), xxhash.Sum64(state))
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}

	return writeFileAtomic(path, 0o644, func(w io.Writer) error {
		tw := tar.NewWriter(w)
		if err := writeEntry(tw, metaEntry, metaBytes); err != nil {
			return err
		}
		if err := writeEntry(tw, stateEntry, state); err != nil {
			return err
		}
		return tw.Close()
	})
}

// Read decodes the checkpoint at path and verifies its state checksum.
func Read(path string) (Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Checkpoint{}, fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return Checkpoint{}, fmt.Errorf("%w: %s: %v", ErrCorruptCheckpoint, path, err)
	}
	defer f.Close()

	cp, err := decode(bufio.NewReader(f))
	if err != nil {
		return Checkpoint{}, fmt.Errorf("%w: %s: %v", ErrCorruptCheckpoint, path, err)
	}
	return cp, nil
}

func decode(r io.Reader) (Checkpoint, error) {
	tr := tar.NewReader(r)
	var metaBytes, state []byte
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Checkpoint{}, err
		}
		switch hdr.Name {
		case metaEntry:
			if metaBytes != nil || hdr.Size > maxMetaSize {
				return Checkpoint{}, fmt.Errorf("bad %s entry", metaEntry)
			}
			metaBytes, err = io.ReadAll(tr)
		case stateEntry:
			if state != nil {
				return Checkpoint{}, fmt.Errorf("duplicate %s entry", stateEntry)
			}
			state, err = io.ReadAll(tr)
		default:
			return Checkpoint{}, fmt.Errorf("unexpected entry %q", hdr.Name)
		}
		if err != nil {
			return Checkpoint{}, err
		}
	}
	if metaBytes == nil {
		return Checkpoint{}, fmt.Errorf("missing %s", metaEntry)
	}
	if state == nil {
		return Checkpoint{}, fmt.Errorf("missing %s", stateEntry)
	}

	cp, wantHash, err := decodeMeta(metaBytes)
	if err != nil {
		return Checkpoint{}, err
	}
	if got := xxhash.Sum64(state); got != wantHash {
		return Checkpoint{}, fmt.Errorf("state checksum mismatch: want %016x got %016x", wantHash, got)
	}
	cp.StateHash = wantHash

	cp.State, err = decodeState(state)
	if err != nil {
		return Checkpoint{}, err
	}
	var n int64
	for _, t := range cp.State {
		n += int64(t.Len())
	}
	if n != cp.ParamCount {
		return Checkpoint{}, fmt.Errorf("param_count=%d but state holds %d values", cp.ParamCount, n)
	}
	return cp, nil
}

func encodeMeta(meta Metadata, paramCount int64, hash uint64) ([]byte, error) {
	sum := fmt.Sprintf("%016x", hash)
	return toml.Marshal(metaDoc{
		Format:       FormatVersion,
		Architecture: &meta.Architecture,
		NumChannels:  &meta.NumChannels,
		NumClasses:   &meta.NumClasses,
		SmallInputs:  &meta.SmallInputs,
		InputSize:    &meta.InputSize,
		ParamCount:   &paramCount,
		StateXXHash:  &sum,
	})
}

func decodeMeta(data []byte) (Checkpoint, uint64, error) {
	var doc metaDoc
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return Checkpoint{}, 0, fmt.Errorf("parse %s: %w", metaEntry, err)
	}
	if doc.Format != FormatVersion {
		return Checkpoint{}, 0, fmt.Errorf("unsupported format %q", doc.Format)
	}
	missing := func(field string) error {
		return fmt.Errorf("%s missing required field %q", metaEntry, field)
	}
	switch {
	case doc.Architecture == nil:
		return Checkpoint{}, 0, missing("architecture")
	case doc.NumChannels == nil:
		return Checkpoint{}, 0, missing("n_channels")
	case doc.NumClasses == nil:
		return Checkpoint{}, 0, missing("num_classes")
	case doc.SmallInputs == nil:
		return Checkpoint{}, 0, missing("small_inputs")
	case doc.InputSize == nil:
		return Checkpoint{}, 0, missing("n_in")
	case doc.ParamCount == nil:
		return Checkpoint{}, 0, missing("param_count")
	case doc.StateXXHash == nil:
		return Checkpoint{}, 0, missing("state_xxhash")
	}
	hash, err := strconv.ParseUint(*doc.StateXXHash, 16, 64)
	if err != nil {
		return Checkpoint{}, 0, fmt.Errorf("bad state_xxhash %q", *doc.StateXXHash)
	}

	cp := Checkpoint{
		Metadata: Metadata{
			Architecture: *doc.Architecture,
			NumChannels:  *doc.NumChannels,
			NumClasses:   *doc.NumClasses,
			SmallInputs:  *doc.SmallInputs,
			InputSize:    *doc.InputSize,
		},
		ParamCount: *doc.ParamCount,
	}
	if err := cp.Metadata.Validate(); err != nil {
		return Checkpoint{}, 0, err
	}
	return cp, hash, nil
}

func encodeState(tensors []models.Tensor) ([]byte, error) {
	out := make([]stateTensor, len(tensors))
	for i, t := range tensors {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		buf := make([]byte, 4*len(t.Data))
		for j, v := range t.Data {
			binary.LittleEndian.PutUint32(buf[4*j:], math.Float32bits(v))
		}
		out[i] = stateTensor{Name: t.Name, Shape: t.Shape, Data: buf}
	}
	return cbor.Marshal(out)
}

func decodeState(data []byte) ([]models.Tensor, error) {
	var raw []stateTensor
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", stateEntry, err)
	}
	out := make([]models.Tensor, len(raw))
	for i, st := range raw {
		if len(st.Data)%4 != 0 {
			return nil, fmt.Errorf("tensor %q payload is %d bytes", st.Name, len(st.Data))
		}
		vals := make([]float32, len(st.Data)/4)
		for j := range vals {
			vals[j] = math.Float32frombits(binary.LittleEndian.Uint32(st.Data[4*j:]))
		}
		t := models.Tensor{Name: st.Name, Shape: st.Shape, Data: vals}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func writeEntry(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(data)),
		ModTime:  entryModTime,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

// writeFileAtomic writes through a temp file in path's directory, syncs it,
// renames it over path and syncs the directory.
func writeFileAtomic(path string, perm os.FileMode, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err := fill(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return fsyncDir(dir)
}

func fsyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
