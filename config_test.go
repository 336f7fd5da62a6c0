package yamux

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NotNil(t, cfg)
	assert.Equal(t, 256, cfg.AcceptBacklog)
	assert.True(t, cfg.EnableKeepalive)
	assert.Equal(t, 60*time.Second, cfg.KeepAliveInterval)
	assert.Equal(t, 30*time.Second, cfg.ConnectionWriteTimeout)
	assert.Equal(t, uint32(256*1024), cfg.MaxStreamWindowSize)
	assert.NotNil(t, cfg.LogOutput)
	assert.NotNil(t, cfg.Clock)
}

func TestConfigVerifyRejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AcceptBacklog = 0
	assert.ErrorIs(t, cfg.Verify(), ErrInvalid)

	cfg = DefaultConfig()
	cfg.MaxStreamWindowSize = 1024
	assert.ErrorIs(t, cfg.Verify(), ErrInvalid)
}

func TestConfigVerifyFillsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogOutput = nil
	cfg.Clock = nil
	assert.NoError(t, cfg.Verify())
	assert.NotNil(t, cfg.LogOutput)
	assert.NotNil(t, cfg.Clock)
}
