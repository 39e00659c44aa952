package host

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPooledHostAcquireRelease(t *testing.T) {
	h := NewPooledHost()

	c, err := h.Acquire()
	require.NoError(t, err)
	require.Len(t, c.Bytes, ChunkSize)
	require.Equal(t, uintptr(0), c.Base()%ChunkAlign)

	h.Release(c)
}

func TestPooledHostChunksDoNotOverlap(t *testing.T) {
	h := NewPooledHost()

	c1, err := h.Acquire()
	require.NoError(t, err)
	c2, err := h.Acquire()
	require.NoError(t, err)

	b1, e1 := c1.Base(), c1.Base()+ChunkSize
	b2, e2 := c2.Base(), c2.Base()+ChunkSize
	require.False(t, b1 < e2 && b2 < e1, "chunks must not overlap")

	h.Release(c1)
	h.Release(c2)
}

func TestPrewarm(t *testing.T) {
	h := NewPooledHost()
	h.Prewarm(8)

	chunks := make([]*Chunk, 0, 8)
	for i := 0; i < 8; i++ {
		c, err := h.Acquire()
		require.NoError(t, err)
		chunks = append(chunks, c)
	}
	for _, c := range chunks {
		h.Release(c)
	}
}
