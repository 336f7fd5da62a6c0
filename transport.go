package yamux

import (
	"io"
	"sync"
	"time"

	"github.com/dep2p/yamux/internal/log"
)

// Transport is the pair of byte-level read/write primitives the core
// consumes. Read may return ErrWouldBlock to signal that no bytes are
// currently available without blocking; any other error is fatal. Any
// ordinary io.ReadWriter — including a net.Conn, which never returns
// this package's ErrWouldBlock sentinel — satisfies Transport directly
// for a blocking embedder.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// Conn is the transport facade: it drives a Session's cooperative
// Progress loop on a background goroutine against a real, blocking
// connection, and exposes Open/Accept/Read/Write with ordinary blocking
// semantics. It supplies the external synchronization a bare *Session
// deliberately lacks — every call into sess goes through mu.
type Conn struct {
	sess      *Session
	transport io.ReadWriteCloser
	logger    *log.LazyLogger

	mu       sync.Mutex
	cond     *sync.Cond
	closed   bool
	closeErr error
	closeOne sync.Once

	acceptCh chan *ConnStream
	doneCh   chan struct{}
}

// NewConn builds a Conn over transport. isClient selects odd (client) or
// even (server) outbound stream IDs.
func NewConn(transport io.ReadWriteCloser, config *Config, isClient bool) (*Conn, error) {
	var sess *Session
	var err error
	if isClient {
		sess, err = Client(transport, config)
	} else {
		sess, err = Server(transport, config)
	}
	if err != nil {
		return nil, err
	}
	c := &Conn{
		sess:      sess,
		transport: transport,
		logger:    log.Logger("yamux/conn"),
		acceptCh:  make(chan *ConnStream, sess.config.AcceptBacklog),
		doneCh:    make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)

	go c.readLoop()
	if sess.config.EnableKeepalive {
		go c.keepaliveLoop()
	}
	return c, nil
}

// readLoop repeatedly drives Session.Progress. Because transport blocks
// natively, Progress never observes ErrWouldBlock here — each iteration
// either processes exactly one frame or the connection has failed.
func (c *Conn) readLoop() {
	for {
		c.mu.Lock()
		err := c.sess.Progress()

		var accepted []*Stream
		for {
			st, aerr := c.sess.AcceptStream()
			if aerr != nil {
				break
			}
			accepted = append(accepted, st)
		}
		c.cond.Broadcast()
		c.mu.Unlock()

		for _, st := range accepted {
			select {
			case c.acceptCh <- &ConnStream{conn: c, stream: st}:
			case <-c.doneCh:
			}
		}

		if err != nil {
			c.finish(err)
			return
		}
	}
}

// keepaliveLoop pings on Config.KeepAliveInterval using Config.Clock,
// so keepalive scheduling is deterministic under a fake clock in tests.
func (c *Conn) keepaliveLoop() {
	ticker := c.sess.config.Clock.Ticker(c.sess.config.KeepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			if !c.closed {
				if err := c.sess.Ping(); err != nil {
					c.logger.Warn("keepalive ping failed", "error", err)
				}
			}
			c.mu.Unlock()
		case <-c.doneCh:
			return
		}
	}
}

// finish marks the Conn closed with err and unblocks every waiter exactly
// once, regardless of whether the trigger was a transport failure
// observed by readLoop or an explicit Close.
func (c *Conn) finish(err error) {
	c.closeOne.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.closeErr = err
		c.mu.Unlock()
		close(c.doneCh)
		close(c.acceptCh)
		c.cond.Broadcast()
	})
}

// OpenStream blocks only for the duration of sending the SYN frame; it
// fails with ErrClosed once the session is shut down or go-away has been
// received from the peer.
func (c *Conn) OpenStream() (*ConnStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, err := c.sess.OpenStream()
	if err != nil {
		return nil, err
	}
	return &ConnStream{conn: c, stream: st}, nil
}

// AcceptStream blocks until a peer-initiated stream is ready, or the
// connection closes.
func (c *Conn) AcceptStream() (*ConnStream, error) {
	st, ok := <-c.acceptCh
	if !ok {
		c.mu.Lock()
		err := c.closeErr
		c.mu.Unlock()
		if err == nil {
			err = ErrClosed
		}
		return nil, err
	}
	return st, nil
}

// Ping blocks until the peer's PING ACK arrives and returns the measured
// round-trip time.
func (c *Conn) Ping() (time.Duration, error) {
	c.mu.Lock()
	if err := c.sess.Ping(); err != nil {
		c.mu.Unlock()
		return 0, err
	}
	for c.sess.pingOutstanding && !c.closed {
		c.cond.Wait()
	}
	rtt, closed, err := c.sess.LastRTT(), c.closed, c.closeErr
	c.mu.Unlock()
	if closed {
		return 0, err
	}
	return rtt, nil
}

// GoAway sends GO_AWAY(reason); see Session.GoAway.
func (c *Conn) GoAway(reason GoAwayReason) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.GoAway(reason)
}

// Close shuts the session down and closes the underlying transport,
// which is what actually unblocks readLoop's in-flight Read.
func (c *Conn) Close() error {
	c.mu.Lock()
	err := c.sess.Close()
	c.mu.Unlock()
	c.finish(ErrClosed)
	if cerr := c.transport.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// NumStreams reports the number of streams currently in the session's
// table.
func (c *Conn) NumStreams() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.NumStreams()
}

// read implements the blocking Read half of ConnStream: it retries
// st.Read under mu, parking on cond whenever the stream reports
// ErrWouldBlock, until data arrives, EOF is reached, or the connection
// closes. Stream.Read signals clean EOF as (0, nil), per the core's own
// contract; io.Reader requires a non-nil error on EOF, so that case is
// translated to (0, io.EOF) here rather than forwarded as-is.
func (c *Conn) read(st *Stream, dst []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		n, err := st.Read(dst)
		if err == nil && n == 0 {
			return 0, io.EOF
		}
		if err != ErrWouldBlock {
			return n, err
		}
		if c.closed {
			return 0, c.closeErr
		}
		c.cond.Wait()
	}
}

// write implements the blocking Write half of ConnStream: it retries
// short writes and parks on cond when the send window is exhausted,
// resuming once an inbound WINDOW_UPDATE (observed by readLoop) grants
// more credit.
func (c *Conn) write(st *Stream, src []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for total < len(src) {
		n, err := st.Write(src[total:])
		total += n
		if err == nil {
			continue
		}
		if err != ErrWouldBlock {
			return total, err
		}
		if c.closed {
			return total, c.closeErr
		}
		c.cond.Wait()
	}
	return total, nil
}

// closeStream implements ConnStream.Close/Reset.
func (c *Conn) closeStream(st *Stream, reset bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := st.Close(reset)
	c.cond.Broadcast()
	return err
}

// ConnStream is a Stream accessed through a Conn: an io.ReadWriteCloser
// with the additional Reset/ID surface real embedders need.
type ConnStream struct {
	conn   *Conn
	stream *Stream
}

// ID returns the stream's 32-bit identifier.
func (cs *ConnStream) ID() uint32 { return cs.stream.ID() }

// Read blocks until data is available, EOF is reached, or the connection
// closes.
func (cs *ConnStream) Read(p []byte) (int, error) { return cs.conn.read(cs.stream, p) }

// Write blocks until all of p is accepted, an error occurs, or the
// connection closes.
func (cs *ConnStream) Write(p []byte) (int, error) { return cs.conn.write(cs.stream, p) }

// Close gracefully half-closes the stream (sends FIN).
func (cs *ConnStream) Close() error { return cs.conn.closeStream(cs.stream, false) }

// Reset aborts the stream (sends RST).
func (cs *ConnStream) Reset() error { return cs.conn.closeStream(cs.stream, true) }
