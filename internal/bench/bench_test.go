package bench

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/memlab/alloclab/pkg/allocator"
)

// TestMain leak-checks the one concurrent code path this module has:
// Compare's one-goroutine-per-engine fan-out.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCompareReturnsOneReportPerEngine(t *testing.T) {
	var out bytes.Buffer
	results, err := Compare(context.Background(), false, &out)
	require.NoError(t, err)
	require.Len(t, results, 3)

	names := []string{results[0].Name, results[1].Name, results[2].Name}
	require.Equal(t, []string{
		"Simple Segregated Storage",
		"Segregated Free List",
		"Binary Buddy",
	}, names)

	for _, r := range results {
		require.Greater(t, r.NumAllocations, 0)
		require.GreaterOrEqual(t, r.TotalMemory, r.AllocatedMemory)
	}
}

func TestCompareVerboseTracesAllocations(t *testing.T) {
	var out bytes.Buffer
	_, err := Compare(context.Background(), true, &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "bytes requested:")
}

func TestRunThroughputWorkloadCountsAllAllocations(t *testing.T) {
	// The script issues one allocation per alloc() call regardless of
	// engine; verify the literal count matches the scripted sequence.
	count := runThroughputWorkload(fakeAllocator{})
	require.Equal(t, 15, count)
}

// fakeAllocator is a minimal allocator.Allocator that always succeeds,
// used to count workload operations independent of engine behavior.
type fakeAllocator struct{}

func (fakeAllocator) Allocate(size int) ([]byte, error) { return make([]byte, size), nil }
func (fakeAllocator) Deallocate([]byte)                 {}
func (fakeAllocator) Reset()                            {}
func (fakeAllocator) Stats() allocator.Stats            { return allocator.Stats{} }
