// Package yamux implements a stream-multiplexing engine for a single
// underlying connection: many independent, flow-controlled byte streams
// share one transport, each admitted by a SYN/ACK handshake and torn
// down by FIN or RST.
//
// # Core vs facade
//
// The core — Session and Stream — is single-threaded cooperative. No
// method blocks internally, no goroutine runs inside it, and it holds
// no lock of its own: every operation either completes immediately or
// fails with ErrWouldBlock, and something external is responsible for
// calling Session.Progress (and, if desired, Session.Keepalive)
// whenever the transport has more bytes to offer.
//
// Conn, in transport.go, is that "something external": it wraps a
// Session with a background goroutine driving Progress against a real,
// blocking io.ReadWriteCloser, and turns the cooperative would-block
// contract into ordinary blocking Open/Accept/Read/Write calls.
// Embedders that already run their own event loop can skip Conn
// entirely and drive a *Session directly.
//
// # Quick start
//
//	conn, _ := yamux.NewConn(tcpConn, yamux.DefaultConfig(), true)
//	stream, _ := conn.OpenStream()
//	stream.Write([]byte("hello"))
//	buf := make([]byte, 1024)
//	n, _ := stream.Read(buf)
//	stream.Close()
//
// On the accepting side:
//
//	conn, _ := yamux.NewConn(tcpConn, yamux.DefaultConfig(), false)
//	stream, _ := conn.AcceptStream()
//	defer stream.Close()
//
// # Flow control
//
// Each stream advertises a receive window (MaxStreamWindowSize by
// default) that shrinks as DATA arrives and is replenished with a
// WINDOW_UPDATE once it falls below half its ceiling. A Write blocked on
// an exhausted send window returns ErrWouldBlock from the core, or parks
// the calling goroutine until credit arrives when issued through Conn.
//
// # Non-goals
//
// This package does not encrypt, authenticate, or otherwise secure the
// underlying connection, does not negotiate or establish that
// connection, and implements only the per-stream windowing described
// above — no connection-level congestion control.
package yamux
