// Package sfl implements a Segregated Free List: five variable-size
// classes covering (0,32], (32,64], (64,128], (128,256] and (256,512],
// searched first-fit from the request's starting class upward, with a
// block split on a hit and forward-only coalescing on free (a freed
// block merges only with a neighbor immediately following it in the
// same arena chunk, never with one preceding it).
package sfl

import (
	"github.com/memlab/alloclab/internal/block"
	"github.com/memlab/alloclab/internal/host"
	"github.com/memlab/alloclab/pkg/allocator"
)

const numClasses = 5

// SFL is the Segregated Free List engine.
type SFL struct {
	mu     allocator.Mutex
	host   host.Host
	lists  [numClasses][]block.Block
	chunks []*host.Chunk

	total, current, peak float64
}

// New returns an SFL engine drawing arena chunks from h. A nil h uses
// the shared host.System.
func New(h host.Host) *SFL {
	if h == nil {
		h = host.System
	}
	return &SFL{host: h}
}

// classify maps a block length to its free-list index: 32 and below is
// class 0, and classes 1..4 cover the remaining power-of-two bands.
// Class 4 takes every length above 256, so a 300-byte remainder and a
// whole 512-byte chunk share one list; that collision is documented
// behavior, not a bug, so the scan over class 4 stays linear in
// whatever has been filed there.
func classify(length int) int {
	p := block.NextPow2(length)
	if p <= 32 {
		return 0
	}
	idx := block.Log2(p) - 5
	if idx > numClasses-1 {
		idx = numClasses - 1
	}
	return idx
}

// findFit scans lists[start:] for the first block able to hold size.
func (f *SFL) findFit(start, size int) (idx, pos int, blk block.Block, ok bool) {
	for i := start; i < numClasses; i++ {
		for p, b := range f.lists[i] {
			if b.Length >= size {
				return i, p, b, true
			}
		}
	}
	return 0, 0, block.Block{}, false
}

// findNeighbor looks across every list for a block that starts exactly
// at addr within chunk, the forward-coalescing lookup on free.
func (f *SFL) findNeighbor(chunk *host.Chunk, addr int) (idx, pos int, blk block.Block, ok bool) {
	for i := 0; i < numClasses; i++ {
		for p, b := range f.lists[i] {
			if b.Chunk == chunk && b.Offset == addr {
				return i, p, b, true
			}
		}
	}
	return 0, 0, block.Block{}, false
}

// Allocate returns a block of exactly size bytes, split out of the
// first free block of at least that length found starting from size's
// class.
func (f *SFL) Allocate(size int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if size > allocator.MaxRequestSize {
		return nil, allocator.ErrRequestTooLarge
	}
	if size < 1 {
		size = 1
	}

	start := classify(size)
	foundIdx, foundPos, found, ok := f.findFit(start, size)

	if !ok {
		chunk, err := f.host.Acquire()
		if err != nil {
			return nil, allocator.ErrArenaExhausted
		}
		f.chunks = append(f.chunks, chunk)
		found = block.Block{Chunk: chunk, Offset: 0, Length: host.ChunkSize}
		f.total += float64(host.ChunkSize)
	} else {
		f.lists[foundIdx] = append(f.lists[foundIdx][:foundPos], f.lists[foundIdx][foundPos+1:]...)
	}

	remainder := found.Length - size
	if remainder > 0 {
		rem := block.Block{Chunk: found.Chunk, Offset: found.Offset + size, Length: remainder}
		f.lists[classify(remainder)] = append(f.lists[classify(remainder)], rem)
	}

	// current/peak update unconditionally on every successful
	// allocation, whether or not a split remainder was filed.
	f.current += float64(size)
	if f.current > f.peak {
		f.peak = f.current
	}

	served := block.Block{Chunk: found.Chunk, Offset: found.Offset, Length: size}
	return served.Bytes(), nil
}

// Deallocate returns ptr to its engine, merging forward with an
// immediately-following free neighbor if one exists in the same arena
// chunk.
func (f *SFL) Deallocate(ptr []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(ptr) == 0 {
		return
	}
	size := len(ptr)
	chunk, offset := block.Locate(f.chunks, ptr)

	length := size
	if idx, pos, neighbor, ok := f.findNeighbor(chunk, offset+size); ok {
		length += neighbor.Length
		f.lists[idx] = append(f.lists[idx][:pos], f.lists[idx][pos+1:]...)
	}

	merged := block.Block{Chunk: chunk, Offset: offset, Length: length}
	f.lists[classify(length)] = append(f.lists[classify(length)], merged)
	f.current -= float64(size)
}

// Reset releases every arena chunk back to the host and clears all
// free lists and counters.
func (f *SFL) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.chunks {
		f.host.Release(c)
	}
	f.chunks = nil
	for i := range f.lists {
		f.lists[i] = nil
	}
	f.total, f.current, f.peak = 0, 0, 0
}

// Stats returns the engine's current utilization counters.
func (f *SFL) Stats() allocator.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()

	return allocator.Stats{Current: f.current, Peak: f.peak, Total: f.total}
}
