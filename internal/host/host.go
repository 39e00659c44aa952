/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package host is the collaborator every allocation engine in this
// module goes through to grow its arena. It hands out fixed-size,
// fixed-alignment chunks backed by a sync.Pool instead of talking to
// the OS allocator directly, so repeated Acquire/Release cycles across
// engine resets reuse the same backing arrays.
package host

import (
	"fmt"
	"sync"
	"unsafe"
)

const (
	// ChunkSize is the size of every arena chunk handed out by a Host.
	ChunkSize = 512

	// ChunkAlign is the alignment every arena chunk satisfies.
	ChunkAlign = 16
)

// Chunk is one arena chunk acquired from a Host: a ChunkSize-byte,
// ChunkAlign-aligned window into a larger backing array.
type Chunk struct {
	Bytes   []byte
	backing []byte
}

// Base returns the chunk's start address. Engines use it only to
// derive offsets of blocks carved from this same chunk, never to
// compare addresses across chunks.
func (c *Chunk) Base() uintptr {
	return uintptr(unsafe.Pointer(&c.Bytes[0]))
}

// Host acquires and releases arena chunks on behalf of an allocation
// engine.
type Host interface {
	Acquire() (*Chunk, error)
	Release(*Chunk)

	// Prewarm fills the pool with n ready-to-use backing buffers so the
	// first Acquire calls of a run don't pay allocation cost.
	Prewarm(n int)
}

// pooledHost backs arena chunks with a sync.Pool of oversized byte
// slices, scaled down from cache/mempool's size-classed pool design to
// the single fixed chunk size every engine here requests.
type pooledHost struct {
	pool sync.Pool
}

// System is the shared host every engine talks to unless given one of
// their own (tests construct private hosts to keep arenas apart).
var System Host = NewPooledHost()

// NewPooledHost returns a Host backed by its own sync.Pool.
func NewPooledHost() Host {
	h := &pooledHost{}
	h.pool.New = func() interface{} {
		buf := make([]byte, ChunkSize+ChunkAlign)
		return &buf
	}
	return h
}

func (h *pooledHost) Acquire() (*Chunk, error) {
	bufp := h.pool.Get().(*[]byte)
	buf := *bufp
	base := uintptr(unsafe.Pointer(&buf[0]))
	pad := (ChunkAlign - int(base%ChunkAlign)) % ChunkAlign
	if pad+ChunkSize > len(buf) {
		return nil, fmt.Errorf("host: backing buffer too small for an aligned %d-byte chunk", ChunkSize)
	}
	return &Chunk{
		Bytes:   buf[pad : pad+ChunkSize : pad+ChunkSize],
		backing: buf,
	}, nil
}

func (h *pooledHost) Release(c *Chunk) {
	if c == nil {
		return
	}
	buf := c.backing
	h.pool.Put(&buf)
}

func (h *pooledHost) Prewarm(n int) {
	chunks := make([]*Chunk, 0, n)
	for i := 0; i < n; i++ {
		c, err := h.Acquire()
		if err != nil {
			break
		}
		chunks = append(chunks, c)
	}
	for _, c := range chunks {
		h.Release(c)
	}
}
