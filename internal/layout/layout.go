// Package layout owns the on-disk shape of an ensemble:
//
//	<root>/model0/model.tar
//	<root>/model1/model.tar
//	...
//
// It validates or clears the destination root and creates member directories.
// No state is kept between calls.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrDestinationConflict = errors.New("layout: destination directory exists")
	ErrDirectoryCreation   = errors.New("layout: directory creation failed")
	ErrInvalidLayout       = errors.New("layout: invalid ensemble layout")
)

const (
	MemberPrefix   = "model"
	CheckpointName = "model.tar"
)

// Prepare makes root an empty directory. An existing root is a conflict unless
// override is set, in which case the whole tree is removed first.
func Prepare(root string, override bool) error {
	root = filepath.Clean(root)
	if _, err := os.Lstat(root); err == nil {
		if !override {
			return fmt.Errorf(
				"%w: %s (to override the directory run with the --override_directory flag)",
				ErrDestinationConflict, root,
			)
		}
		if err := os.RemoveAll(root); err != nil {
			return fmt.Errorf("%w: clear %s: %v", ErrDirectoryCreation, root, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %v", ErrDirectoryCreation, root, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDirectoryCreation, root, err)
	}
	return nil
}

// MemberPath is root/model{index}. It does not touch the filesystem.
func MemberPath(root string, index int) string {
	return filepath.Join(root, MemberPrefix+strconv.Itoa(index))
}

// CheckpointPath is the member checkpoint file under root.
func CheckpointPath(root string, index int) string {
	return filepath.Join(MemberPath(root, index), CheckpointName)
}

// MemberDirectory creates root/model{index} and returns its path.
// The directory must not exist yet.
func MemberDirectory(root string, index int) (string, error) {
	if index < 0 {
		return "", fmt.Errorf("%w: negative member index %d", ErrDirectoryCreation, index)
	}
	dir := MemberPath(root, index)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDirectoryCreation, dir, err)
	}
	return dir, nil
}

// Member is one discovered member directory.
type Member struct {
	Index int
	Dir   string
}

// Members lists root's member directories ordered by index. Any entry that is
// not a member directory, or a gap in the index sequence, is a layout error.
func Members(root string) ([]Member, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	members := make([]Member, 0, len(entries))
	for _, e := range entries {
		idx, ok := parseMemberName(e.Name())
		if !ok || !e.IsDir() {
			return nil, fmt.Errorf("%w: unexpected entry %q in %s", ErrInvalidLayout, e.Name(), root)
		}
		members = append(members, Member{Index: idx, Dir: filepath.Join(root, e.Name())})
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].Index < members[j].Index
	})
	for i, m := range members {
		if m.Index != i {
			return nil, fmt.Errorf("%w: expected %s%d, found %s", ErrInvalidLayout, MemberPrefix, i, filepath.Base(m.Dir))
		}
	}
	return members, nil
}

func parseMemberName(name string) (int, bool) {
	digits, ok := strings.CutPrefix(name, MemberPrefix)
	if !ok || digits == "" {
		return 0, false
	}
	if len(digits) > 1 && digits[0] == '0' {
		return 0, false
	}
	idx, err := strconv.Atoi(digits)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}
