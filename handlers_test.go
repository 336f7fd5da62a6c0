package yamux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// injectFrame appends a raw encoded frame straight to mt's inbox, as if
// the peer had written it to the wire. Tests use this to reach protocol
// states a well-behaved peer's own Session never drives itself into,
// such as a colliding stream id.
func injectFrame(mt *memTransport, hdr header, payload []byte) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	buf := make([]byte, headerSize+len(payload))
	encodeHeader(hdr, buf)
	copy(buf[headerSize:], payload)
	mt.in = append(mt.in, buf...)
}

func TestSessionAcceptBacklogRejectsExcessSYN(t *testing.T) {
	a, b := newMemTransportPair()
	cfg := DefaultConfig()
	cfg.AcceptBacklog = 2
	client, err := Client(a, DefaultConfig())
	require.NoError(t, err)
	server, err := Server(b, cfg)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := client.OpenStream()
		require.NoError(t, err)
	}
	pumpUntilIdle(t, client, server)
	require.Len(t, server.acceptQueue, 2, "the backlog must be full before the excess SYN is sent")

	extra, err := client.OpenStream()
	require.NoError(t, err)
	pumpUntilIdle(t, client, server)

	assert.Len(t, server.acceptQueue, 2, "a SYN arriving at a full backlog must not grow the queue")
	_, exists := server.streams[extra.ID()]
	assert.False(t, exists, "a SYN rejected for a full backlog must never enter the stream table")
	assert.Equal(t, "closed", extra.State(), "the client observes the RST and tears its own half down")
}

func TestHandleIncomingSYNRejectsCollidingStreamID(t *testing.T) {
	client, server := newTestSessionPair(t)

	cs, err := client.OpenStream()
	require.NoError(t, err)
	pumpUntilIdle(t, client, server)

	ss, err := server.AcceptStream()
	require.NoError(t, err)
	require.Equal(t, cs.ID(), ss.ID())
	require.Equal(t, "established", ss.State())

	serverTransport := server.transport.(*memTransport)
	injectFrame(serverTransport, header{
		Version:  protoVersion,
		Type:     typeWindowUpdate,
		Flags:    flagSYN,
		StreamID: ss.ID(),
		Length:   4,
	}, encode4(defaultMaxStreamWindowSize))

	require.NoError(t, server.Progress())

	assert.Len(t, server.acceptQueue, 0, "a colliding SYN must never be queued for accept")
	stillThere := server.streams[ss.ID()]
	require.NotNil(t, stillThere)
	assert.Same(t, ss, stillThere, "the original stream must be untouched by the rejected duplicate")
	assert.Equal(t, "established", stillThere.State())
}

func TestHandleWindowUpdateZeroLengthFlaglessIsNoop(t *testing.T) {
	client, server := newTestSessionPair(t)

	_, err := client.OpenStream()
	require.NoError(t, err)
	pumpUntilIdle(t, client, server)

	ss, err := server.AcceptStream()
	require.NoError(t, err)
	require.Equal(t, "established", ss.State())
	beforeWindow := ss.sendWindow

	serverTransport := server.transport.(*memTransport)
	injectFrame(serverTransport, header{
		Version:  protoVersion,
		Type:     typeWindowUpdate,
		StreamID: ss.ID(),
	}, nil)

	require.NoError(t, server.Progress())

	assert.Equal(t, "established", ss.State(), "a flagless, payload-less WINDOW_UPDATE carries no state transition")
	assert.Equal(t, beforeWindow, ss.sendWindow, "and grants no credit, since it carries none")
}
