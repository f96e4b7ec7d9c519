package transition

import "errors"

var (
	// ErrNotFound indicates the pedido does not exist.
	ErrNotFound = errors.New("pedido not found")

	// ErrInvalidTransition indicates the requested target stage is not
	// reachable from the pedido's current state. Never coerced to a
	// fallback stage.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrNotReady indicates a readiness action was requested while material
	// or cliché is still unavailable.
	ErrNotReady = errors.New("pedido not ready for production")

	// ErrAntivahoPending indicates a sequence advance was attempted while
	// the antivaho treatment still needs reconfirmation. The caller must
	// route through ConfirmAntivaho first.
	ErrAntivahoPending = errors.New("antivaho reconfirmation pending")

	// ErrOutOfSequence indicates the pedido sits in a stage its work
	// sequence does not contain; advancing requires a reorder.
	ErrOutOfSequence = errors.New("pedido out of sequence")

	// ErrAmbiguousContinuation indicates a sequence reorder was submitted
	// without an explicit continuation target.
	ErrAmbiguousContinuation = errors.New("continuation target required")

	// ErrInvalidSequence indicates a work sequence contains stages outside
	// the post-printing family or repeats a stage.
	ErrInvalidSequence = errors.New("invalid work sequence")
)
