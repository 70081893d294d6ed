package session

import (
	"errors"
	"fmt"
)

var (
	// ErrImmutableSession is returned for any mutation of a COMPLETED session.
	ErrImmutableSession = errors.New("session is completed and cannot be modified")
	// ErrProtectedSet is returned when removing the primary top set.
	ErrProtectedSet = errors.New("the primary top set cannot be removed; mark another set as primary first")
	// ErrValidation marks rejected input and failed completion checks.
	ErrValidation = errors.New("validation failed")
	// ErrIndexOutOfRange is returned for an exercise or set index outside the ledger.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrDisabledSet is returned when editing a set disabled by periodization.
	ErrDisabledSet = errors.New("set is disabled by periodization")
	// ErrNoRemovableSet is returned when no active set of the requested type exists.
	ErrNoRemovableSet = errors.New("no removable set of that type")
	// ErrNoDraft is returned when the user has no session in progress.
	ErrNoDraft = errors.New("no session in progress")
	// ErrClosed is returned by a live session after it has been torn down.
	ErrClosed = errors.New("live session closed")
)

// MissingPrimaryTopSetError names the exercise that blocks finalization.
type MissingPrimaryTopSetError struct {
	ExerciseIndex int
	ExerciseID    string
	ExerciseName  string
	Primaries     int
}

func (e *MissingPrimaryTopSetError) Error() string {
	if e.Primaries > 1 {
		return fmt.Sprintf("exercise %d (%s) has %d primary top sets, expected exactly one",
			e.ExerciseIndex+1, e.ExerciseName, e.Primaries)
	}
	return fmt.Sprintf("exercise %d (%s) needs a primary top set", e.ExerciseIndex+1, e.ExerciseName)
}

func (e *MissingPrimaryTopSetError) Unwrap() error { return ErrValidation }
