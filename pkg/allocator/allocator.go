// Package allocator defines the contract every allocation engine in
// this module satisfies (SSS, SFL, Buddy), plus the small set of
// collaborators shared across all three: the sentinel error for the
// one recoverable failure, the utilization-stats shape, and the
// mutual-exclusion wrapper each engine's public methods take for their
// entire body.
package allocator

import "errors"

// MaxRequestSize is the largest single allocation any engine accepts.
// Requests above this always fail with ErrRequestTooLarge.
const MaxRequestSize = 512

var (
	// ErrRequestTooLarge is returned when a request exceeds MaxRequestSize.
	ErrRequestTooLarge = errors.New("allocator: requested size exceeds the 512-byte limit")

	// ErrArenaExhausted is returned when the host allocator fails to
	// provide a new arena chunk. Treated as fatal in the source this
	// module is modeled on (it panics there); here it is surfaced
	// through the same recoverable error channel as ErrRequestTooLarge
	// instead, since a Go library has no business panicking on behalf
	// of its caller for a condition the caller can retry or report.
	ErrArenaExhausted = errors.New("allocator: host failed to provide an arena chunk")
)

// Allocator is the shape all three engines implement. Allocate returns
// a byte range whose length matches the class's canonical size for SSS
// and Buddy, or the caller's exact requested size for SFL (see each
// engine's package docs). Deallocate's argument must be a slice
// previously returned by Allocate and not yet freed; passing anything
// else is a contract violation, not a reportable error.
type Allocator interface {
	Allocate(size int) ([]byte, error)
	Deallocate(ptr []byte)
	Reset()
	Statter
}

// Statter exposes an engine's current utilization statistics, the Go
// shape of the source's MemStats trait.
type Statter interface {
	Stats() Stats
}

// Stats mirrors the source's three floating counters: current and peak
// allocated size, and the total size ever drawn from the host.
type Stats struct {
	Current float64
	Peak    float64
	Total   float64
}

// Ratio returns Peak/Total, or 0 if nothing has ever been allocated.
func (s Stats) Ratio() float64 {
	if s.Total == 0 {
		return 0
	}
	return s.Peak / s.Total
}
