// Package sss implements Simple Segregated Storage: ten fixed,
// power-of-two size classes, each carved from its own arena chunks on
// first use. A class's arena is sliced into equal blocks up front and
// never split or merged with another class again; deallocation always
// returns a block at its own canonical size.
package sss

import (
	"github.com/memlab/alloclab/internal/block"
	"github.com/memlab/alloclab/internal/host"
	"github.com/memlab/alloclab/pkg/allocator"
)

const numClasses = 10 // size classes 1, 2, 4, ..., 512

// SSS is the Simple Segregated Storage engine.
type SSS struct {
	mu     allocator.Mutex
	host   host.Host
	lists  [numClasses][]block.Block
	chunks []*host.Chunk

	total, current, peak float64
}

// New returns an SSS engine drawing arena chunks from h. A nil h uses
// the shared host.System.
func New(h host.Host) *SSS {
	if h == nil {
		h = host.System
	}
	return &SSS{host: h}
}

// Allocate returns a block of length 2^i, where i is the smallest
// class whose canonical size is >= size.
func (s *SSS) Allocate(size int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if size > allocator.MaxRequestSize {
		return nil, allocator.ErrRequestTooLarge
	}
	if size < 1 {
		size = 1
	}
	rounded := block.NextPow2(size)
	idx := block.Log2(rounded)

	if len(s.lists[idx]) == 0 {
		chunk, err := s.host.Acquire()
		if err != nil {
			return nil, allocator.ErrArenaExhausted
		}
		s.chunks = append(s.chunks, chunk)
		for off := 0; off+rounded <= host.ChunkSize; off += rounded {
			s.lists[idx] = append(s.lists[idx], block.Block{Chunk: chunk, Offset: off, Length: rounded})
		}
		s.total += float64(host.ChunkSize)
	}

	n := len(s.lists[idx]) - 1
	blk := s.lists[idx][n]
	s.lists[idx] = s.lists[idx][:n]

	s.current += float64(rounded)
	if s.current > s.peak {
		s.peak = s.current
	}

	return blk.Bytes(), nil
}

// Deallocate files ptr back onto the free list of the class that
// len(ptr) rounds up to, at that class's canonical size rather than at
// len(ptr): a 128-byte slot passed back as a 100-byte sub-slice is
// filed as 128 bytes. The class is derived from len(ptr) alone, so a
// sub-slice of half its slot or less is filed in a smaller class.
func (s *SSS) Deallocate(ptr []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ptr) == 0 {
		return
	}
	rounded := block.NextPow2(len(ptr))
	idx := block.Log2(rounded)

	chunk, off := block.Locate(s.chunks, ptr)
	s.lists[idx] = append(s.lists[idx], block.Block{Chunk: chunk, Offset: off, Length: rounded})
	s.current -= float64(rounded)
}

// Reset releases every arena chunk back to the host and clears all
// free lists and counters.
func (s *SSS) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.chunks {
		s.host.Release(c)
	}
	s.chunks = nil
	for i := range s.lists {
		s.lists[i] = nil
	}
	s.total, s.current, s.peak = 0, 0, 0
}

// Stats returns the engine's current utilization counters.
func (s *SSS) Stats() allocator.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return allocator.Stats{Current: s.current, Peak: s.peak, Total: s.total}
}
