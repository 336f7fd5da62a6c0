package yamux

// streamState is one of the seven lifecycle states a stream moves
// through.
type streamState int

const (
	stateIdle streamState = iota
	stateSynSent
	stateSynRecv
	stateEstablished
	stateFinSent
	stateFinRecv
	stateClosed
)

func (s streamState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateSynSent:
		return "syn_sent"
	case stateSynRecv:
		return "syn_recv"
	case stateEstablished:
		return "established"
	case stateFinSent:
		return "fin_sent"
	case stateFinRecv:
		return "fin_recv"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stream is one bidirectional byte channel within a Session. The
// Session exclusively owns every Stream; a Stream returned to the embedder
// from OpenStream/AcceptStream is a borrowed reference invalidated once the
// session removes it from its table.
type Stream struct {
	session *Session
	id      uint32
	state   streamState

	sendWindow uint32
	recvWindow uint32
	recvBuf    *recvBuffer

	// accepted is false while the stream sits in the session's accept
	// queue (inbound, already ESTABLISHED once our SYN|ACK was sent) and
	// true once the embedder has dequeued it via AcceptStream.
	accepted bool

	// finSentAck records whether our outgoing FIN doubled as an ACK of
	// the peer's own FIN.
	finSentAck bool
}

// ID returns the stream's 32-bit identifier, unique within its session.
func (st *Stream) ID() uint32 { return st.id }

// State reports the stream's current lifecycle state as a diagnostic
// string; it is not part of the wire contract.
func (st *Stream) State() string { return st.state.String() }

// Read drains the receive buffer. An empty buffer on an otherwise
// live stream yields ErrWouldBlock; an empty buffer on a stream that has
// seen the peer's FIN yields (0, nil) exactly once and transitions the
// stream to CLOSED; an empty buffer on an already-CLOSED stream yields
// ErrClosed.
func (st *Stream) Read(dst []byte) (int, error) {
	if n := st.recvBuf.Len(); n > 0 {
		return st.recvBuf.Read(dst), nil
	}
	switch st.state {
	case stateFinRecv:
		st.session.finalizeStreamRead(st)
		return 0, nil
	case stateClosed:
		return 0, ErrClosed
	default:
		return 0, ErrWouldBlock
	}
}

// Write accepts up to len(src) bytes for transmission. A stream
// that has sent a FIN or been reset/closed fails with ErrClosed; a stream
// whose handshake has not yet completed (IDLE/SYN_SENT/SYN_RECV) fails
// with ErrWouldBlock, since that condition clears on its own once the
// peer's SYN-ACK is processed. ESTABLISHED and FIN_RECV (peer half-closed,
// we haven't) both accept writes, matching the half-close scenario where a
// side that has seen the peer's FIN still replies before closing its own
// direction. Against a send window of zero it fails with ErrWouldBlock;
// otherwise it emits ceil(n/maxDataFrameSize) DATA frames, each written to
// the transport before the next is attempted, and returns the number of
// bytes actually accepted (which may be less than len(src) if the window
// runs out mid-write).
func (st *Stream) Write(src []byte) (int, error) {
	switch st.state {
	case stateEstablished, stateFinRecv:
	case stateClosed, stateFinSent:
		return 0, ErrClosed
	default:
		return 0, ErrWouldBlock
	}
	if len(src) == 0 {
		return 0, nil
	}
	if st.sendWindow == 0 {
		return 0, ErrWouldBlock
	}
	n := len(src)
	if uint32(n) > st.sendWindow {
		n = int(st.sendWindow)
	}
	sent := 0
	for sent < n {
		chunk := n - sent
		if chunk > maxDataFrameSize {
			chunk = maxDataFrameSize
		}
		if err := st.session.sendData(st, src[sent:sent+chunk], false); err != nil {
			if sent > 0 {
				return sent, nil
			}
			return 0, err
		}
		st.sendWindow -= uint32(chunk)
		sent += chunk
	}
	return sent, nil
}

// Close ends the stream. A graceful close (reset=false) sends FIN;
// further writes then fail with ErrClosed while reads keep draining
// buffered data until the peer's own FIN arrives. A reset close sends RST
// and removes the stream from the session's table immediately; bytes
// already in the receive buffer can still be drained by Read, after which
// Read fails with ErrClosed. Close is idempotent: a second call is a no-op.
func (st *Stream) Close(reset bool) error {
	if st.state == stateClosed {
		return nil
	}
	if reset {
		return st.session.resetStream(st)
	}
	return st.session.closeStreamGracefully(st)
}
