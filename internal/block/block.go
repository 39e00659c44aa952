// Package block holds the free-block representation and size-class
// math shared by the three allocation engines: a block is addressed as
// (chunk, offset, length) rather than a raw pointer, so buddy
// coalescing can reason about which arena chunk a block belongs to
// instead of a single global base.
package block

import (
	"math/bits"
	"unsafe"

	"github.com/memlab/alloclab/internal/host"
)

// Block is a contiguous byte range carved from one arena chunk.
type Block struct {
	Chunk  *host.Chunk
	Offset int
	Length int
}

// Bytes returns the slice view of the block.
func (b Block) Bytes() []byte {
	return b.Chunk.Bytes[b.Offset : b.Offset+b.Length : b.Offset+b.Length]
}

// Addr returns the block's absolute start address.
func (b Block) Addr() uintptr {
	return b.Chunk.Base() + uintptr(b.Offset)
}

// NextPow2 returns the smallest power of two >= n, treating n<=1 as 1.
func NextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Log2 returns log2(n) for a power-of-two n.
func Log2(n int) int {
	return bits.TrailingZeros(uint(n))
}

// Locate finds which of the given chunks owns ptr, returning the chunk
// and ptr's offset within it. A pointer that was never carved from one
// of these chunks is a contract violation by the caller, not a
// reportable error.
func Locate(chunks []*host.Chunk, ptr []byte) (*host.Chunk, int) {
	if len(ptr) == 0 {
		panic("block: deallocate called with an empty slice")
	}
	addr := uintptr(unsafe.Pointer(&ptr[0]))
	for _, c := range chunks {
		base := c.Base()
		if addr >= base && addr < base+host.ChunkSize {
			return c, int(addr - base)
		}
	}
	panic("block: pointer not owned by this engine's arenas")
}
