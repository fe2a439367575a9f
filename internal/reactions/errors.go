package reactions

import (
	"errors"
	"fmt"

	"github.com/metronon/likewise/internal/resources"
)

// ErrSelfReaction reports an actor reacting to their own content. It is
// raised before any cache or queue mutation.
var ErrSelfReaction = errors.New("cannot react to own content")

// PersistError reports a failed batch partition. It never reaches toggle
// callers: the partition is re-queued and retried on the next flush, and
// reconciliation corrects any counter drift in the meantime.
type PersistError struct {
	Kind   resources.Kind
	Deltas int
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist %d %s deltas: %v", e.Deltas, e.Kind, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
