package yamux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestStream(state streamState, sendWindow, recvWindow uint32) *Stream {
	sess, _ := Client(&memTransport{}, DefaultConfig())
	return &Stream{
		session:    sess,
		id:         1,
		state:      state,
		sendWindow: sendWindow,
		recvWindow: recvWindow,
		recvBuf:    newRecvBuffer(),
	}
}

func TestStreamReadBuffered(t *testing.T) {
	st := newTestStream(stateEstablished, 0, defaultMaxStreamWindowSize)
	st.recvBuf.Write([]byte("hi"))
	buf := make([]byte, 8)
	n, err := st.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, "hi", string(buf[:n]))
}

func TestStreamReadWouldBlockWhenEstablishedAndEmpty(t *testing.T) {
	st := newTestStream(stateEstablished, 0, defaultMaxStreamWindowSize)
	_, err := st.Read(make([]byte, 8))
	assert.ErrorIs(t, err, ErrWouldBlock)
}

func TestStreamReadFinRecvDrainsThenCloses(t *testing.T) {
	st := newTestStream(stateFinRecv, 0, defaultMaxStreamWindowSize)
	st.session.streams[st.id] = st

	n, err := st.Read(make([]byte, 8))
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, stateClosed, st.state)

	_, err = st.Read(make([]byte, 8))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStreamWriteRejectsClosedAndFinSent(t *testing.T) {
	for _, s := range []streamState{stateClosed, stateFinSent} {
		st := newTestStream(s, defaultMaxStreamWindowSize, defaultMaxStreamWindowSize)
		_, err := st.Write([]byte("x"))
		assert.ErrorIs(t, err, ErrClosed)
	}
}

func TestStreamWriteWouldBlockBeforeHandshake(t *testing.T) {
	for _, s := range []streamState{stateIdle, stateSynSent, stateSynRecv} {
		st := newTestStream(s, defaultMaxStreamWindowSize, defaultMaxStreamWindowSize)
		_, err := st.Write([]byte("x"))
		assert.ErrorIs(t, err, ErrWouldBlock)
	}
}

func TestStreamWriteAllowedAfterPeerFin(t *testing.T) {
	st := newTestStream(stateFinRecv, defaultMaxStreamWindowSize, defaultMaxStreamWindowSize)
	st.session.streams[st.id] = st
	n, err := st.Write([]byte("reply"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestStreamWriteZeroWindowWouldBlock(t *testing.T) {
	st := newTestStream(stateEstablished, 0, defaultMaxStreamWindowSize)
	n, err := st.Write([]byte("x"))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrWouldBlock)
}

func TestStreamWriteEmptyIsNoop(t *testing.T) {
	st := newTestStream(stateEstablished, defaultMaxStreamWindowSize, defaultMaxStreamWindowSize)
	n, err := st.Write(nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStreamCloseIdempotent(t *testing.T) {
	st := newTestStream(stateClosed, 0, 0)
	assert.NoError(t, st.Close(false))
	assert.NoError(t, st.Close(true))
}

func TestStreamIDAndState(t *testing.T) {
	st := newTestStream(stateEstablished, 0, 0)
	assert.Equal(t, uint32(1), st.ID())
	assert.Equal(t, "established", st.State())
}
