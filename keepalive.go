package yamux

// Keepalive sends a PING if keepalive is enabled and at least
// Config.KeepAliveInterval has elapsed (by Config.Clock) since the last
// one. The core has no timers or goroutines of its own; something that
// drives the session's event loop, such as an embedder's own ticker, must
// call this periodically for EnableKeepalive to have any effect. The Conn
// facade does not call it: its keepaliveLoop calls Ping on its own ticker.
func (s *Session) Keepalive() error {
	if !s.config.EnableKeepalive || s.shutdown {
		return nil
	}
	now := s.config.Clock.Now()
	if s.lastKeepaliveAt.IsZero() {
		s.lastKeepaliveAt = now
		return nil
	}
	if now.Sub(s.lastKeepaliveAt) < s.config.KeepAliveInterval {
		return nil
	}
	s.lastKeepaliveAt = now
	return s.Ping()
}
