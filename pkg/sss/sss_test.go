package sss

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/memlab/alloclab/internal/host"
	"github.com/memlab/alloclab/pkg/allocator"
)

func TestAllocateTooLarge(t *testing.T) {
	s := New(host.NewPooledHost())
	_, err := s.Allocate(allocator.MaxRequestSize + 1)
	require.ErrorIs(t, err, allocator.ErrRequestTooLarge)
}

// TestCarveAndFree reproduces the allocate(128)/deallocate(128) scenario:
// a miss carves a fresh 512-byte arena into four 128-byte blocks, one of
// which is handed out immediately, and freeing it returns the list to
// its carved size.
func TestCarveAndFree(t *testing.T) {
	s := New(host.NewPooledHost())

	ptr, err := s.Allocate(128)
	require.NoError(t, err)
	require.Len(t, ptr, 128)
	require.Len(t, s.lists[7], 3)

	s.Deallocate(ptr)
	require.Len(t, s.lists[7], 4)
}

// TestUtilizationStats reproduces the allocate(256), allocate(128),
// deallocate(128), allocate(32) scenario: each size class draws its own
// arena chunk, so total_size accumulates per class while current/peak
// track only what is outstanding.
func TestUtilizationStats(t *testing.T) {
	s := New(host.NewPooledHost())

	p256, err := s.Allocate(256)
	require.NoError(t, err)

	p128, err := s.Allocate(128)
	require.NoError(t, err)

	s.Deallocate(p128)

	_, err = s.Allocate(32)
	require.NoError(t, err)

	stats := s.Stats()
	require.Equal(t, float64(1536), stats.Total)
	require.Equal(t, float64(384), stats.Peak)
	require.Equal(t, float64(288), stats.Current)

	s.Deallocate(p256)
}

func TestDeallocateNormalizesToCanonicalLength(t *testing.T) {
	s := New(host.NewPooledHost())

	ptr, err := s.Allocate(120)
	require.NoError(t, err)
	require.Len(t, ptr, 128) // rounded up to class 128

	// Caller passes back a sub-slice shorter than the canonical class
	// size; deallocate must still file it at 128, not at len(ptr).
	short := ptr[:100]
	s.Deallocate(short)
	require.Len(t, s.lists[7], 4)

	stats := s.Stats()
	require.Equal(t, float64(0), stats.Current)
}

func TestReset(t *testing.T) {
	s := New(host.NewPooledHost())
	_, err := s.Allocate(64)
	require.NoError(t, err)

	s.Reset()
	stats := s.Stats()
	require.Equal(t, allocator.Stats{}, stats)
	require.Empty(t, s.chunks)
}

func TestDeallocateUnknownPointerPanics(t *testing.T) {
	s := New(host.NewPooledHost())
	foreign := make([]byte, 32)

	require.Panics(t, func() {
		s.Deallocate(foreign)
	})
}

func TestErrorsIsRequestTooLarge(t *testing.T) {
	s := New(host.NewPooledHost())
	_, err := s.Allocate(1000)
	require.True(t, errors.Is(err, allocator.ErrRequestTooLarge))
}
