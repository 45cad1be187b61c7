package ensemble

import (
	"errors"
	"fmt"
)

var (
	ErrBusy                 = errors.New("ensemble: build already in progress")
	ErrInconsistentEnsemble = errors.New("ensemble: members disagree on metadata")
	ErrIncompleteMember     = errors.New("ensemble: member directory incomplete")
)

// MemberError pins a failure to one member and pipeline stage.
type MemberError struct {
	Index int
	Stage string
	Err   error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("member %d: %s: %v", e.Index, e.Stage, e.Err)
}

func (e *MemberError) Unwrap() error {
	return e.Err
}
