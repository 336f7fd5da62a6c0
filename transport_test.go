package yamux

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createConnPair opens a real loopback TCP connection, so Conn exercises
// its background goroutines against genuine blocking I/O rather than an
// in-memory stand-in.
func createConnPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	var serverConn net.Conn
	var serverErr error
	done := make(chan struct{})
	go func() {
		serverConn, serverErr = listener.Accept()
		close(done)
	}()

	clientConn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	<-done
	require.NoError(t, serverErr)
	return serverConn, clientConn
}

func createConnPairFacade(t *testing.T) (client, server *Conn) {
	t.Helper()
	serverConn, clientConn := createConnPair(t)

	var err error
	client, err = NewConn(clientConn, DefaultConfig(), true)
	require.NoError(t, err)
	server, err = NewConn(serverConn, DefaultConfig(), false)
	require.NoError(t, err)
	return client, server
}

func TestConnOpenAcceptEcho(t *testing.T) {
	client, server := createConnPairFacade(t)
	defer client.Close()
	defer server.Close()

	cs, err := client.OpenStream()
	require.NoError(t, err)

	acceptErrCh := make(chan error, 1)
	var ss *ConnStream
	go func() {
		var aerr error
		ss, aerr = server.AcceptStream()
		acceptErrCh <- aerr
	}()
	require.NoError(t, <-acceptErrCh)
	require.NotNil(t, ss)
	assert.Equal(t, cs.ID(), ss.ID())

	_, err = cs.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	_, err = ss.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))

	_, err = ss.Write([]byte("pong"))
	require.NoError(t, err)
	_, err = cs.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(buf))
}

func TestConnCloseUnblocksAccept(t *testing.T) {
	client, server := createConnPairFacade(t)
	defer client.Close()

	errCh := make(chan error, 1)
	go func() {
		_, err := server.AcceptStream()
		errCh <- err
	}()

	require.NoError(t, server.Close())

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("AcceptStream did not unblock after Close")
	}
}

func TestConnReadYieldsIOEOFOnGracefulClose(t *testing.T) {
	client, server := createConnPairFacade(t)
	defer client.Close()
	defer server.Close()

	cs, err := client.OpenStream()
	require.NoError(t, err)

	acceptErrCh := make(chan error, 1)
	var ss *ConnStream
	go func() {
		var aerr error
		ss, aerr = server.AcceptStream()
		acceptErrCh <- aerr
	}()
	require.NoError(t, <-acceptErrCh)

	require.NoError(t, cs.Close())

	buf := make([]byte, 4)
	n, err := ss.Read(buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err, "a graceful peer close must surface as io.EOF, not (0, nil)")
}

func TestConnPing(t *testing.T) {
	client, server := createConnPairFacade(t)
	defer client.Close()
	defer server.Close()

	rtt, err := client.Ping()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rtt, time.Duration(0))
}
