package yamux

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaturatingAddUint32(t *testing.T) {
	sum, overflowed := saturatingAddUint32(10, 20)
	assert.False(t, overflowed)
	assert.Equal(t, uint32(30), sum)

	sum, overflowed = saturatingAddUint32(math.MaxUint32-5, 10)
	assert.True(t, overflowed)
	assert.Equal(t, uint32(math.MaxUint32), sum)

	sum, overflowed = saturatingAddUint32(math.MaxUint32, 0)
	assert.False(t, overflowed)
	assert.Equal(t, uint32(math.MaxUint32), sum)
}
