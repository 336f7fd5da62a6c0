package yamux

// This file groups the per-frame-type handlers invoked from
// Session.dispatch, mirroring the one-handler-per-type split of the
// original yamux_handlers.c.

// handleData processes a fully-buffered DATA frame. Its body has
// already been streamed into the target stream's receive buffer (or
// discarded) by fillDataPayload; this handler only updates window
// accounting and stream state and reacts to FIN/RST.
func (s *Session) handleData(hdr header) error {
	if s.in.dataTarget == nil {
		// Unknown stream: the reference implementation tolerates this
		// by resetting it rather than failing the whole session.
		return s.sendFrame(header{
			Version:  protoVersion,
			Type:     typeWindowUpdate,
			Flags:    flagRST,
			StreamID: hdr.StreamID,
		}, nil)
	}
	target := s.in.dataTarget
	if s.in.dataDiscard {
		return s.sendFrame(header{
			Version:  protoVersion,
			Type:     typeWindowUpdate,
			Flags:    flagRST,
			StreamID: target.id,
		}, nil)
	}

	if hdr.Length > target.recvWindow {
		// The peer sent more than the window it was granted: a flow
		// control violation severe enough to treat as a session-wide
		// protocol error rather than a single-stream RST.
		return ErrProtocol
	}
	target.recvWindow -= hdr.Length

	if hdr.hasFlag(flagFIN) {
		s.applyFIN(target)
	}
	if hdr.hasFlag(flagRST) {
		s.applyRST(target)
		return nil
	}

	if owed, delta := s.owedWindowUpdate(target); owed && target.state != stateClosed {
		if err := s.sendWindowUpdate(target, delta); err != nil {
			return err
		}
		target.recvWindow = s.config.MaxStreamWindowSize
	}
	return nil
}

// handleWindowUpdate processes a fully-buffered WINDOW_UPDATE frame.
// payload holds the 4-byte body when hasPayload is true (a zero-length
// WINDOW_UPDATE is tolerated as a pure flag carrier).
func (s *Session) handleWindowUpdate(hdr header, payload [4]byte, hasPayload bool) error {
	var value uint32
	if hasPayload {
		value = decodeUint32(payload[:])
	}

	if hdr.hasFlag(flagSYN) && !hdr.hasFlag(flagACK) {
		// A pure SYN (no ACK) is a peer-initiated stream request. A
		// SYN+ACK, by contrast, is the peer's reply to a SYN we sent
		// from OpenStream and falls through to the existing-stream
		// handling below like any other ACK.
		return s.handleIncomingSYN(hdr, value)
	}

	st, exists := s.streams[hdr.StreamID]
	if !exists {
		// FIN/RST/credit for a stream we no longer track: nothing to
		// tear down, nothing to grant. Silently ignored.
		return nil
	}

	if hdr.hasFlag(flagACK) {
		if st.state == stateSynSent {
			st.sendWindow = value
			st.state = stateEstablished
		}
	} else if value > 0 {
		sum, overflowed := saturatingAddUint32(st.sendWindow, value)
		if overflowed {
			return ErrProtocol
		}
		st.sendWindow = sum
	}

	if hdr.hasFlag(flagFIN) {
		s.applyFIN(st)
	}
	if hdr.hasFlag(flagRST) {
		s.applyRST(st)
	}
	return nil
}

// handleIncomingSYN admits a peer-initiated stream, or rejects it with
// RST when the session is going away, the accept queue is full, or its
// id collides with a stream already in the table.
func (s *Session) handleIncomingSYN(hdr header, peerWindow uint32) error {
	reject := func() error {
		return s.sendFrame(header{
			Version:  protoVersion,
			Type:     typeWindowUpdate,
			Flags:    flagRST,
			StreamID: hdr.StreamID,
		}, nil)
	}

	if _, exists := s.streams[hdr.StreamID]; exists {
		s.logger.Warn("SYN for a stream id already in the table", "stream", hdr.StreamID)
		return reject()
	}
	if s.shutdown || s.goAwaySent {
		return reject()
	}
	if len(s.acceptQueue) >= s.config.AcceptBacklog {
		s.logger.Warn("accept backlog full, resetting inbound SYN", "stream", hdr.StreamID)
		return reject()
	}

	st := &Stream{
		session:    s,
		id:         hdr.StreamID,
		state:      stateSynRecv,
		sendWindow: peerWindow,
		recvWindow: s.config.MaxStreamWindowSize,
		recvBuf:    newRecvBuffer(),
	}

	if err := s.sendFrame(header{
		Version:  protoVersion,
		Type:     typeWindowUpdate,
		Flags:    flagSYN | flagACK,
		StreamID: st.id,
		Length:   4,
	}, encode4(st.recvWindow)); err != nil {
		return err
	}

	st.state = stateEstablished
	s.streams[st.id] = st
	s.acceptQueue = append(s.acceptQueue, st)
	return nil
}

// handlePing answers a PING request with an ACK echoing its token, or
// completes RTT tracking for one we sent.
func (s *Session) handlePing(hdr header) error {
	if hdr.hasFlag(flagACK) {
		if s.pingOutstanding && hdr.StreamID == s.pingID {
			s.lastRTT = s.config.Clock.Now().Sub(s.pingSentAt)
			s.pingOutstanding = false
		}
		return nil
	}
	return s.sendFrame(header{
		Version:  protoVersion,
		Type:     typePing,
		Flags:    flagACK,
		StreamID: hdr.StreamID,
	}, nil)
}

// handleGoAway records the peer's intent to admit no further streams.
// Streams already established are unaffected.
func (s *Session) handleGoAway(hdr header, payload [4]byte) error {
	s.goAwayReceived = true
	s.goAwayReason = GoAwayReason(decodeUint32(payload[:]))
	s.logger.Info("received GO_AWAY", "reason", s.goAwayReason)
	return nil
}
