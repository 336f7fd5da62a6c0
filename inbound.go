package yamux

// parsePhase tracks where the accumulator is within the current frame.
type parsePhase int

const (
	phaseHeader parsePhase = iota
	phasePayload
)

// inbound is the per-session byte accumulator that lets Progress survive
// a transport returning ErrWouldBlock mid-frame: rather than requiring
// the transport to deliver a full frame per call, the session remembers
// exactly how many header or payload bytes it has consumed so far and
// resumes on the next call. Every field here is scratch state for the
// frame currently in flight; it is reset once that frame has been fully
// dispatched.
type inbound struct {
	phase parsePhase

	headerBuf  [headerSize]byte
	headerHave int

	hdr header

	// payload accumulates the fixed 4-byte bodies of WINDOW_UPDATE and
	// GO_AWAY. PING carries none.
	payload    [4]byte
	payloadHave int

	// DATA payload is streamed straight into the target stream's
	// receive buffer (or discarded) as it arrives, rather than staged
	// here, since it can be far larger than a fixed scratch field.
	dataRemaining uint32
	dataTarget    *Stream
	dataDiscard   bool
	dataScratch   [maxDataFrameSize]byte
}

func (in *inbound) reset() {
	*in = inbound{}
}

// Progress reads and fully processes exactly one frame: one
// header, its payload, and the resulting 0..2 outbound frames, all before
// returning. A transport that can only deliver part of a frame right now
// causes Progress to return ErrWouldBlock without losing the bytes
// already consumed; the next call resumes where this one left off.
func (s *Session) Progress() error {
	if s.in.phase == phaseHeader {
		ok, err := s.fillHeader()
		if err != nil {
			s.in.reset()
			return err
		}
		if !ok {
			return ErrWouldBlock
		}
		hdr, herr := decodeHeader(s.in.headerBuf[:])
		s.in.headerHave = 0
		if herr != nil {
			s.in.reset()
			return ErrProtocol
		}
		if err := validateFrameLength(hdr); err != nil {
			s.in.reset()
			return err
		}
		s.in.hdr = hdr
		s.beginPayload(hdr)
	}

	done, err := s.fillPayload()
	if err != nil {
		s.in.reset()
		return err
	}
	if !done {
		return ErrWouldBlock
	}

	err = s.dispatch()
	s.in.reset()
	return err
}

// fillHeader reads as many header bytes as the transport currently makes
// available, returning ok=true once headerSize bytes have accumulated.
func (s *Session) fillHeader() (ok bool, err error) {
	for s.in.headerHave < headerSize {
		n, rerr := s.transport.Read(s.in.headerBuf[s.in.headerHave:headerSize])
		if n > 0 {
			s.in.headerHave += n
		}
		if rerr != nil {
			if rerr == ErrWouldBlock {
				return false, nil
			}
			return false, ErrIO
		}
		if n == 0 {
			return false, ErrIO
		}
	}
	return true, nil
}

// validateFrameLength checks the per-type length constraints that
// decodeHeader deliberately leaves to higher layers: WINDOW_UPDATE is 4
// bytes, or 0 for a pure flag frame; GO_AWAY is always 4; PING carries no
// body.
func validateFrameLength(hdr header) error {
	switch hdr.Type {
	case typeWindowUpdate:
		if hdr.Length != 0 && hdr.Length != 4 {
			return ErrProtocol
		}
	case typeGoAway:
		if hdr.Length != 4 {
			return ErrProtocol
		}
	case typePing:
		if hdr.Length != 0 {
			return ErrProtocol
		}
	}
	return nil
}

// beginPayload prepares the accumulator for hdr's body. For DATA it
// resolves the target stream once, up front, so handleData never has to
// re-check it mid-payload.
func (s *Session) beginPayload(hdr header) {
	s.in.phase = phasePayload
	s.in.payloadHave = 0
	if hdr.Type != typeData {
		return
	}
	s.in.dataRemaining = hdr.Length
	st := s.streams[hdr.StreamID]
	s.in.dataTarget = st
	s.in.dataDiscard = st == nil || st.state == stateClosed || st.state == stateFinRecv
}

// fillPayload reads as much of the current frame's body as the transport
// currently makes available.
func (s *Session) fillPayload() (done bool, err error) {
	switch s.in.hdr.Type {
	case typeData:
		return s.fillDataPayload()
	case typeWindowUpdate:
		if s.in.hdr.Length == 0 {
			return true, nil
		}
		return s.fillFixedPayload()
	case typeGoAway:
		return s.fillFixedPayload()
	default: // typePing
		return true, nil
	}
}

// fillFixedPayload reads the 4-byte body shared by WINDOW_UPDATE and
// GO_AWAY frames.
func (s *Session) fillFixedPayload() (bool, error) {
	for s.in.payloadHave < 4 {
		n, err := s.transport.Read(s.in.payload[s.in.payloadHave:4])
		if n > 0 {
			s.in.payloadHave += n
		}
		if err != nil {
			if err == ErrWouldBlock {
				return false, nil
			}
			return false, ErrIO
		}
		if n == 0 {
			return false, ErrIO
		}
	}
	return true, nil
}

// fillDataPayload reads the remainder of a DATA frame's body, writing it
// into the target stream's receive buffer as it arrives (or discarding it
// if the stream is unknown, CLOSED, or FIN_RECV).
func (s *Session) fillDataPayload() (bool, error) {
	for s.in.dataRemaining > 0 {
		chunk := s.in.dataRemaining
		if chunk > maxDataFrameSize {
			chunk = maxDataFrameSize
		}
		n, err := s.transport.Read(s.in.dataScratch[:chunk])
		if n > 0 {
			if !s.in.dataDiscard && s.in.dataTarget != nil {
				s.in.dataTarget.recvBuf.Write(s.in.dataScratch[:n])
			}
			s.in.dataRemaining -= uint32(n)
		}
		if err != nil {
			if err == ErrWouldBlock {
				return false, nil
			}
			return false, ErrIO
		}
		if n == 0 {
			return false, ErrIO
		}
	}
	return true, nil
}

// dispatch runs the handler for the now-fully-buffered frame in s.in.hdr.
func (s *Session) dispatch() error {
	switch s.in.hdr.Type {
	case typeData:
		return s.handleData(s.in.hdr)
	case typeWindowUpdate:
		return s.handleWindowUpdate(s.in.hdr, s.in.payload, s.in.payloadHave == 4)
	case typePing:
		return s.handlePing(s.in.hdr)
	case typeGoAway:
		return s.handleGoAway(s.in.hdr, s.in.payload)
	default:
		return ErrInternal
	}
}
