package yamux

import "errors"

// Error taxonomy. Every error the engine surfaces to an embedder is one
// of these, or wraps one of these via errors.Is.
var (
	// ErrInvalid reports a malformed argument: a nil handle, a zero
	// length where one is disallowed.
	ErrInvalid = errors.New("yamux: invalid argument")

	// ErrNoMemory reports an allocation failure.
	ErrNoMemory = errors.New("yamux: allocation failed")

	// ErrIO reports a fatal transport read/write failure.
	ErrIO = errors.New("yamux: transport error")

	// ErrClosed reports that the stream or session is past its final
	// state.
	ErrClosed = errors.New("yamux: closed")

	// ErrTimeout reports that a blocking accept found nothing waiting.
	ErrTimeout = errors.New("yamux: timeout")

	// ErrProtocol reports that the peer violated framing or state rules.
	ErrProtocol = errors.New("yamux: protocol error")

	// ErrInternal reports an invariant violation that should not occur.
	ErrInternal = errors.New("yamux: internal error")

	// ErrInvalidStream reports an operation against a stream ID absent
	// from the session's table.
	ErrInvalidStream = errors.New("yamux: invalid stream")

	// ErrWouldBlock reports that an operation cannot progress without
	// more I/O or window replenishment.
	ErrWouldBlock = errors.New("yamux: would block")

	// ErrTooManyStreams reports that the accept backlog is full; the
	// peer's SYN was answered with RST rather than admitted.
	ErrTooManyStreams = errors.New("yamux: too many streams")
)
