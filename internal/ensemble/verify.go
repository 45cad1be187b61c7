package ensemble

import (
	"fmt"
	"os"

	"github.com/danmuck/ensemblectl/internal/checkpoint"
	"github.com/danmuck/ensemblectl/internal/layout"
	"github.com/danmuck/ensemblectl/internal/models"
)

// MemberSummary is the verified view of one member checkpoint.
type MemberSummary struct {
	Index      int
	Path       string
	Metadata   checkpoint.Metadata
	ParamCount int64
	StateHash  uint64
}

// Verify checks that root holds contiguous members, each with exactly one
// readable checkpoint, all sharing the same metadata. A non-nil builder also
// restores every member into a freshly built skeleton.
func Verify(root string, builder models.SkeletonBuilder) ([]MemberSummary, error) {
	members, err := layout.Members(root)
	if err != nil {
		return nil, err
	}
	out := make([]MemberSummary, 0, len(members))
	for _, m := range members {
		entries, err := os.ReadDir(m.Dir)
		if err != nil {
			return nil, err
		}
		if len(entries) != 1 || entries[0].Name() != layout.CheckpointName || !entries[0].Type().IsRegular() {
			return nil, fmt.Errorf("%w: %s must hold exactly %s", ErrIncompleteMember, m.Dir, layout.CheckpointName)
		}

		path := layout.CheckpointPath(root, m.Index)
		cp, err := checkpoint.Read(path)
		if err != nil {
			return nil, &MemberError{Index: m.Index, Stage: "read", Err: err}
		}
		if len(out) > 0 && cp.Metadata != out[0].Metadata {
			return nil, fmt.Errorf("%w: member %d has %+v, member 0 has %+v", ErrInconsistentEnsemble, m.Index, cp.Metadata, out[0].Metadata)
		}
		if builder != nil {
			if _, err := cp.Restore(builder); err != nil {
				return nil, &MemberError{Index: m.Index, Stage: "restore", Err: err}
			}
		}
		out = append(out, MemberSummary{
			Index:      m.Index,
			Path:       path,
			Metadata:   cp.Metadata,
			ParamCount: cp.ParamCount,
			StateHash:  cp.StateHash,
		})
	}
	return out, nil
}
