// Package buddy implements a binary buddy allocator over ten
// power-of-two size classes (1..512). A miss at a class walks upward
// to the first nonempty class, acquiring a new 512-byte arena chunk
// from the host if none is found, then splits the block downward
// class by class to the requested size. Freeing a block walks back up
// merging with its buddy — the block at offset^length within the same
// arena chunk — for as long as a buddy is free, stopping at a 512-byte
// arena boundary.
//
// Buddy lookups and coalescing are always confined to the arena chunk
// a block was carved from: two blocks are buddies only if they share
// both an XOR-complementary offset and the same owning chunk, never
// just the offset. Free lists are shared across chunks (class 9 can
// hold whole chunks from several arenas at once); only the buddy
// relationship itself is chunk-local.
package buddy

import (
	"github.com/memlab/alloclab/internal/block"
	"github.com/memlab/alloclab/internal/host"
	"github.com/memlab/alloclab/pkg/allocator"
)

const numClasses = 10 // size classes 1, 2, 4, ..., 512 (class 9 == host.ChunkSize)

// Buddy is the binary buddy allocator engine.
type Buddy struct {
	mu     allocator.Mutex
	host   host.Host
	lists  [numClasses][]block.Block
	chunks []*host.Chunk

	total, current, peak float64
}

// New returns a Buddy engine drawing arena chunks from h. A nil h uses
// the shared host.System.
func New(h host.Host) *Buddy {
	if h == nil {
		h = host.System
	}
	return &Buddy{host: h}
}

// Allocate returns a block of length 2^i, where i is the smallest
// class whose canonical size is >= size.
func (b *Buddy) Allocate(size int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if size > allocator.MaxRequestSize {
		return nil, allocator.ErrRequestTooLarge
	}
	if size < 1 {
		size = 1
	}
	rounded := block.NextPow2(size)
	i := block.Log2(rounded)

	j := i
	for j < numClasses && len(b.lists[j]) == 0 {
		j++
	}
	if j == numClasses {
		chunk, err := b.host.Acquire()
		if err != nil {
			return nil, allocator.ErrArenaExhausted
		}
		b.chunks = append(b.chunks, chunk)
		b.lists[numClasses-1] = append(b.lists[numClasses-1], block.Block{Chunk: chunk, Offset: 0, Length: host.ChunkSize})
		b.total += float64(host.ChunkSize)
		j = numClasses - 1
	}

	n := len(b.lists[j]) - 1
	blk := b.lists[j][n]
	b.lists[j] = b.lists[j][:n]

	for j > i {
		half := blk.Length / 2
		upper := block.Block{Chunk: blk.Chunk, Offset: blk.Offset + half, Length: half}
		j--
		b.lists[j] = append(b.lists[j], upper)
		blk.Length = half
	}

	b.current += float64(rounded)
	if b.current > b.peak {
		b.peak = b.current
	}

	return blk.Bytes(), nil
}

// Deallocate returns ptr to its engine, recursively merging with its
// buddy for as long as one is free and they share an owning chunk,
// stopping once the block has grown back to a whole arena chunk.
func (b *Buddy) Deallocate(ptr []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(ptr) == 0 {
		return
	}
	rounded := block.NextPow2(len(ptr))
	freedSize := rounded
	i := block.Log2(rounded)

	chunk, offset := block.Locate(b.chunks, ptr)

	for {
		if rounded == host.ChunkSize {
			b.lists[numClasses-1] = append(b.lists[numClasses-1], block.Block{Chunk: chunk, Offset: offset, Length: rounded})
			break
		}

		buddyOffset := offset ^ rounded
		pos := -1
		for p, blk := range b.lists[i] {
			if blk.Chunk == chunk && blk.Offset == buddyOffset {
				pos = p
				break
			}
		}
		if pos == -1 {
			b.lists[i] = append(b.lists[i], block.Block{Chunk: chunk, Offset: offset, Length: rounded})
			break
		}

		buddy := b.lists[i][pos]
		b.lists[i] = append(b.lists[i][:pos], b.lists[i][pos+1:]...)
		if buddy.Offset < offset {
			offset = buddy.Offset
		}
		rounded *= 2
		i++
	}

	b.current -= float64(freedSize)
}

// Reset releases every arena chunk back to the host and clears all
// free lists and counters.
func (b *Buddy) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range b.chunks {
		b.host.Release(c)
	}
	b.chunks = nil
	for i := range b.lists {
		b.lists[i] = nil
	}
	b.total, b.current, b.peak = 0, 0, 0
}

// Stats returns the engine's current utilization counters.
func (b *Buddy) Stats() allocator.Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return allocator.Stats{Current: b.current, Peak: b.peak, Total: b.total}
}
