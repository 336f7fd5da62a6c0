package yamux

import (
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"github.com/dep2p/yamux/internal/log"
)

// Session is the engine instance over a single transport, owning many
// Streams. It is single-threaded cooperative: no method blocks
// internally, no goroutine runs inside it, and it holds no locks of its
// own — an embedder that drives it from more than one goroutine must
// supply its own synchronization, which is exactly what the Conn facade
// in transport.go does.
type Session struct {
	client    bool
	config    *Config
	logger    *log.LazyLogger
	transport Transport

	nextStreamID uint32
	streams      map[uint32]*Stream
	acceptQueue  []*Stream

	goAwaySent     bool
	goAwayReceived bool
	goAwayReason   GoAwayReason
	shutdown       bool

	pingID          uint32
	pingOutstanding bool
	pingSentAt      time.Time
	lastRTT         time.Duration

	lastKeepaliveAt time.Time

	in inbound
}

// newSession validates config and transport and builds a Session whose
// stream-id allocator starts at 1 (client) or 2 (server).
func newSession(config *Config, transport Transport, client bool) (*Session, error) {
	if transport == nil {
		return nil, ErrInvalid
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Verify(); err != nil {
		return nil, err
	}
	log.SetOutput(config.LogOutput, slog.LevelInfo)
	s := &Session{
		client:    client,
		config:    config,
		logger:    log.Logger("yamux/session"),
		transport: transport,
		streams:   make(map[uint32]*Stream),
	}
	if client {
		s.nextStreamID = 1
	} else {
		s.nextStreamID = 2
	}
	return s, nil
}

// Client wraps transport as the client side of a new session: it
// allocates odd outbound stream IDs.
func Client(transport Transport, config *Config) (*Session, error) {
	return newSession(config, transport, true)
}

// Server wraps transport as the server side of a new session: it
// allocates even outbound stream IDs.
func Server(transport Transport, config *Config) (*Session, error) {
	return newSession(config, transport, false)
}

// IsClient reports whether this session allocates odd stream IDs.
func (s *Session) IsClient() bool { return s.client }

// NumStreams reports how many streams are currently present in the
// session's table, regardless of lifecycle state.
func (s *Session) NumStreams() int { return len(s.streams) }

// GoAwayReceived reports whether the peer has sent GO_AWAY, and with what
// reason.
func (s *Session) GoAwayReceived() (bool, GoAwayReason) {
	return s.goAwayReceived, s.goAwayReason
}

// LastRTT returns the most recently completed ping's round-trip time, or
// zero if none has completed yet.
func (s *Session) LastRTT() time.Duration { return s.lastRTT }

// OpenStream creates a new outbound stream. It fails with ErrClosed
// once the session is shut down or has received a GO_AWAY from the peer.
func (s *Session) OpenStream() (*Stream, error) {
	if s.shutdown {
		return nil, ErrClosed
	}
	if s.goAwayReceived {
		return nil, ErrClosed
	}
	id := s.nextStreamID
	st := &Stream{
		session:    s,
		id:         id,
		state:      stateSynSent,
		recvWindow: s.config.MaxStreamWindowSize,
		recvBuf:    newRecvBuffer(),
	}
	if err := s.sendFrame(header{
		Version:  protoVersion,
		Type:     typeWindowUpdate,
		Flags:    flagSYN,
		StreamID: id,
		Length:   4,
	}, encode4(st.recvWindow)); err != nil {
		return nil, ErrIO
	}
	s.nextStreamID += 2
	s.streams[id] = st
	return st, nil
}

// AcceptStream dequeues the oldest pending inbound stream, in FIFO order.
// It fails with ErrWouldBlock when nothing is pending and ErrClosed once
// the session has shut down.
func (s *Session) AcceptStream() (*Stream, error) {
	if len(s.acceptQueue) == 0 {
		if s.shutdown {
			return nil, ErrClosed
		}
		return nil, ErrWouldBlock
	}
	st := s.acceptQueue[0]
	s.acceptQueue = s.acceptQueue[1:]
	st.accepted = true
	return st, nil
}

// Ping sends a session-level PING carrying a fresh 32-bit token in the
// stream_id field and starts RTT measurement against Config.Clock.
func (s *Session) Ping() error {
	if s.shutdown {
		return ErrClosed
	}
	s.pingID++
	s.pingOutstanding = true
	s.pingSentAt = s.config.Clock.Now()
	return s.sendFrame(header{
		Version:  protoVersion,
		Type:     typePing,
		StreamID: s.pingID,
	}, nil)
}

// GoAway announces that this session will admit no further streams.
// Streams already open continue until they close naturally.
func (s *Session) GoAway(reason GoAwayReason) error {
	if s.goAwaySent {
		return nil
	}
	if err := s.sendFrame(header{
		Version:  protoVersion,
		Type:     typeGoAway,
		StreamID: sessionStreamID,
		Length:   4,
	}, encode4(uint32(reason))); err != nil {
		return err
	}
	s.goAwaySent = true
	return nil
}

// Close tears the session down: it sends GO_AWAY if it has not
// already, RSTs every stream still present in the table, and releases the
// table. Per-stream send failures are aggregated with multierr rather than
// discarding all but the first, since every stream deserves an attempt.
// Close is idempotent.
func (s *Session) Close() error {
	if s.shutdown {
		return nil
	}
	s.shutdown = true

	var errs error
	if !s.goAwaySent {
		if err := s.GoAway(GoAwayNormal); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	for id, st := range s.streams {
		if st.state == stateClosed {
			continue
		}
		if err := s.sendFrame(header{
			Version:  protoVersion,
			Type:     typeWindowUpdate,
			Flags:    flagRST,
			StreamID: id,
		}, nil); err != nil {
			errs = multierr.Append(errs, err)
		}
		st.state = stateClosed
	}
	s.streams = make(map[uint32]*Stream)
	s.acceptQueue = nil
	return errs
}

// sendFrame writes a header plus an optional fixed-size payload
// (WINDOW_UPDATE/GO_AWAY bodies; PING has none) as a single transport write. Any
// transport error — including ErrWouldBlock mid-emission — becomes
// ErrIO: this core does not maintain an outbound queue.
func (s *Session) sendFrame(hdr header, payload []byte) error {
	var buf [headerSize + 4]byte
	encodeHeader(hdr, buf[:headerSize])
	total := buf[:headerSize]
	if len(payload) > 0 {
		copy(buf[headerSize:], payload)
		total = buf[:headerSize+len(payload)]
	}
	n, err := s.transport.Write(total)
	if err != nil || n != len(total) {
		return ErrIO
	}
	return nil
}

// sendData writes one DATA frame: a 12-byte header followed by body,
// emitted as two sequential writes. A short write or any transport error
// on either part is fatal (ErrIO), matching sendFrame's contract.
func (s *Session) sendData(st *Stream, body []byte, fin bool) error {
	flags := uint16(0)
	if fin {
		flags |= flagFIN
	}
	var hb [headerSize]byte
	encodeHeader(header{
		Version:  protoVersion,
		Type:     typeData,
		Flags:    flags,
		StreamID: st.id,
		Length:   uint32(len(body)),
	}, hb[:])
	if n, err := s.transport.Write(hb[:]); err != nil || n != headerSize {
		return ErrIO
	}
	if len(body) > 0 {
		if n, err := s.transport.Write(body); err != nil || n != len(body) {
			return ErrIO
		}
	}
	return nil
}

// sendWindowUpdate grants the peer delta additional send-window bytes.
func (s *Session) sendWindowUpdate(st *Stream, delta uint32) error {
	return s.sendFrame(header{
		Version:  protoVersion,
		Type:     typeWindowUpdate,
		StreamID: st.id,
		Length:   4,
	}, encode4(delta))
}

// owedWindowUpdate reports whether st's advertised receive window has
// fallen below half of the configured maximum, and by how much it should
// be restored.
func (s *Session) owedWindowUpdate(st *Stream) (owed bool, delta uint32) {
	half := s.config.MaxStreamWindowSize / 2
	if st.recvWindow >= half {
		return false, 0
	}
	return true, s.config.MaxStreamWindowSize - st.recvWindow
}

// closeStreamGracefully implements the non-reset half of Stream.Close.
// If a window replenishment is owed at the moment of closing, it is
// merged into the outgoing FIN frame rather than sent separately;
// otherwise the FIN travels on an empty DATA frame.
func (s *Session) closeStreamGracefully(st *Stream) error {
	if st.state == stateClosed || st.state == stateFinSent {
		return nil
	}
	ackPeerFin := st.state == stateFinRecv

	var err error
	if owed, delta := s.owedWindowUpdate(st); owed {
		flags := flagFIN
		if ackPeerFin {
			flags |= flagACK
		}
		err = s.sendFrame(header{
			Version:  protoVersion,
			Type:     typeWindowUpdate,
			Flags:    flags,
			StreamID: st.id,
			Length:   4,
		}, encode4(delta))
		if err == nil {
			st.recvWindow = s.config.MaxStreamWindowSize
			st.finSentAck = ackPeerFin
		}
	} else {
		err = s.sendData(st, nil, true)
	}
	if err != nil {
		return err
	}

	if ackPeerFin {
		st.state = stateClosed
		s.removeStream(st.id)
	} else {
		st.state = stateFinSent
	}
	return nil
}

// resetStream implements the reset half of Stream.Close: it sends RST and
// removes the stream from the table immediately regardless of whether the
// send succeeds, since the local side considers the stream gone either
// way.
func (s *Session) resetStream(st *Stream) error {
	err := s.sendFrame(header{
		Version:  protoVersion,
		Type:     typeWindowUpdate,
		Flags:    flagRST,
		StreamID: st.id,
	}, nil)
	st.state = stateClosed
	s.removeStream(st.id)
	return err
}

// finalizeStreamRead transitions a FIN_RECV stream to CLOSED once its
// receive buffer has been drained to empty, and removes it from the
// table.
func (s *Session) finalizeStreamRead(st *Stream) {
	st.state = stateClosed
	s.removeStream(st.id)
}

// removeStream drops id from the table. It is a no-op if id is absent,
// which keeps call sites that race a local close against an inbound
// frame for the same stream simple.
func (s *Session) removeStream(id uint32) {
	delete(s.streams, id)
}

// applyFIN advances st's state machine on receipt of a FIN flag,
// regardless of which frame type carried it: FIN rides an
// otherwise-empty DATA frame normally, or a WINDOW_UPDATE frame when
// merged with a window replenishment or sent with no data pending.
func (s *Session) applyFIN(st *Stream) {
	switch st.state {
	case stateEstablished:
		st.state = stateFinRecv
	case stateFinSent:
		st.state = stateClosed
		s.removeStream(st.id)
	}
}

// applyRST forces an immediate transition to CLOSED and removes st from
// the table. Bytes already in its receive buffer stay readable through
// Stream.Read until drained; after that Read fails with ErrClosed.
func (s *Session) applyRST(st *Stream) {
	if st.state == stateClosed {
		return
	}
	st.state = stateClosed
	s.removeStream(st.id)
}
