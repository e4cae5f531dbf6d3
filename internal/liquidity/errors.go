package liquidity

import "fmt"

// Kind is the machine-readable error classification.
type Kind string

const (
	// KindChainRead covers network/RPC failures on required base state.
	KindChainRead Kind = "chain_read_failure"
	// KindInsufficientHistory is the oracle's "too old" condition. It is a
	// recognized outcome: callers branch on it, never retry it.
	KindInsufficientHistory Kind = "insufficient_history"
	// KindInvalidPoolState covers malformed base state, e.g. zero tick
	// spacing or a derived negative liquidity.
	KindInvalidPoolState Kind = "invalid_pool_state"
	// KindPrecondition covers caller contract violations such as unsorted
	// input to the cliff detector.
	KindPrecondition Kind = "precondition_violation"
)

// Error carries a kind for machine handling and a human message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by kind so sentinel comparisons via errors.Is work.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Kind == e.Kind
}

// ErrInsufficientHistory is the sentinel for the oracle lacking observations
// old enough to cover the requested window.
var ErrInsufficientHistory = &Error{Kind: KindInsufficientHistory, Msg: "oracle history does not cover the requested window"}

func chainReadError(msg string, err error) *Error {
	return &Error{Kind: KindChainRead, Msg: msg, Err: err}
}

func invalidStateError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidPoolState, Msg: fmt.Sprintf(format, args...)}
}

func preconditionError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPrecondition, Msg: fmt.Sprintf(format, args...)}
}
