// Package bench runs the comparative workload from the source driver
// against all three engines: a throughput pass timing a fixed script
// of nested allocations and deallocations, then a reset and a second
// utilization pass whose final stats are reported.
package bench

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/memlab/alloclab/internal/host"
	"github.com/memlab/alloclab/pkg/allocator"
	"github.com/memlab/alloclab/pkg/buddy"
	"github.com/memlab/alloclab/pkg/sfl"
	"github.com/memlab/alloclab/pkg/sss"
)

// scope tracks the blocks allocated within one nested lexical scope of
// the workload script and frees them in reverse declaration order when
// the scope ends, the Go stand-in for the source's scope-exit Drop.
type scope struct {
	a      allocator.Allocator
	blocks [][]byte
}

func newScope(a allocator.Allocator) *scope {
	return &scope{a: a}
}

func (s *scope) alloc(size int) {
	blk, err := s.a.Allocate(size)
	if err != nil {
		return
	}
	s.blocks = append(s.blocks, blk)
}

func (s *scope) done() {
	for i := len(s.blocks) - 1; i >= 0; i-- {
		s.a.Deallocate(s.blocks[i])
	}
	s.blocks = nil
}

// runThroughputWorkload replays the source's test_throughput nested
// allocation pattern once and returns how many allocations it issued.
func runThroughputWorkload(a allocator.Allocator) int {
	count := 0
	outer := newScope(a)
	alloc := func(s *scope, size int) {
		s.alloc(size)
		count++
	}

	alloc(outer, 1) // u8

	func() {
		inner := newScope(a)
		defer inner.done()
		alloc(inner, 8) // u64
		alloc(inner, 1) // u8
		alloc(inner, 4) // u32
		alloc(inner, 8) // u64
	}()

	alloc(outer, 16) // u128
	alloc(outer, 2)  // u16
	alloc(outer, 8)  // u64

	func() {
		mid := newScope(a)
		defer mid.done()
		alloc(mid, 16) // u128
		func() {
			leaf := newScope(a)
			defer leaf.done()
			alloc(leaf, 8) // u64
			alloc(leaf, 2) // u16
		}()
		alloc(mid, 4) // u32
	}()

	alloc(outer, 16) // u128
	alloc(outer, 8)  // u64
	alloc(outer, 8)  // u64

	outer.done()
	return count
}

// runUtilizationWorkload replays the source's test_peak_memory_usage
// nested allocation pattern once, leaving every block freed so the
// final stats reflect peak and total only.
func runUtilizationWorkload(a allocator.Allocator) {
	outer := newScope(a)

	outer.alloc(2) // u16

	func() {
		inner := newScope(a)
		defer inner.done()
		inner.alloc(16) // u128
		inner.alloc(4)  // u32
	}()

	outer.alloc(8) // u64

	func() {
		mid := newScope(a)
		defer mid.done()
		mid.alloc(8) // u64
		func() {
			leaf := newScope(a)
			defer leaf.done()
			leaf.alloc(16) // u128
			leaf.alloc(1)  // u8
		}()
		mid.alloc(2) // u16
	}()

	outer.alloc(16) // u128
	outer.done()
}

// tracingAllocator wraps an Allocator and logs each call's requested
// size and alignment to out, reproducing the user-visible behavior of
// the source's (never-wired) debug global allocator without its
// reentrancy concerns: none of these engines allocate through
// themselves while logging.
type tracingAllocator struct {
	allocator.Allocator
	out io.Writer
}

func (t *tracingAllocator) Allocate(size int) ([]byte, error) {
	fmt.Fprintf(t.out, "bytes requested: %d\talignment: %d\n", size, host.ChunkAlign)
	return t.Allocator.Allocate(size)
}

// Report is one engine's throughput and utilization results.
type Report struct {
	Name            string
	NumAllocations  int
	ElapsedTime     time.Duration
	AllocatedMemory float64 // peak allocated size, printed under the source's label
	TotalMemory     float64
	UsageRatio      float64
}

type engineEntry struct {
	name string
	a    allocator.Allocator
}

// Compare runs the throughput and utilization passes against all three
// engines concurrently, one goroutine per engine, and returns one
// Report per engine in a fixed order (SSS, SFL, Buddy).
func Compare(ctx context.Context, verbose bool, out io.Writer) ([]Report, error) {
	engines := []engineEntry{
		{"Simple Segregated Storage", sss.New(nil)},
		{"Segregated Free List", sfl.New(nil)},
		{"Binary Buddy", buddy.New(nil)},
	}

	results := make([]Report, len(engines))

	g, _ := errgroup.WithContext(ctx)
	for i, e := range engines {
		i, e := i, e
		g.Go(func() error {
			a := e.a
			if verbose {
				a = &tracingAllocator{Allocator: a, out: out}
			}

			host.System.Prewarm(4)

			start := time.Now()
			count := runThroughputWorkload(a)
			elapsed := time.Since(start)

			a.Reset()
			runUtilizationWorkload(a)
			stats := a.Stats()

			results[i] = Report{
				Name:            e.name,
				NumAllocations:  count,
				ElapsedTime:     elapsed,
				AllocatedMemory: stats.Peak,
				TotalMemory:     stats.Total,
				UsageRatio:      stats.Ratio(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Print writes a Report in the source driver's plain-text format.
func Print(out io.Writer, r Report) {
	fmt.Fprintf(out, "\n%s\n", r.Name)
	fmt.Fprintf(out, "num_allocations: %d\n", r.NumAllocations)
	fmt.Fprintf(out, "time_taken: %s\n", r.ElapsedTime)
	if r.ElapsedTime > 0 {
		fmt.Fprintf(out, "throughput: %.2f allocations/sec\n", float64(r.NumAllocations)/r.ElapsedTime.Seconds())
	}
	fmt.Fprintf(out, "allocated_memory: %.0f bytes\n", r.AllocatedMemory)
	fmt.Fprintf(out, "total_memory: %.0f bytes\n", r.TotalMemory)
	fmt.Fprintf(out, "peak_memory_usage_ratio: %.4f\n", r.UsageRatio)
}
