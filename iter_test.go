// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestIterAllocatedChunksEmpty(t *testing.T) {
	arena := New()

	count := 0
	for range arena.IterAllocatedChunks() {
		count++
	}
	require.Equal(t, 0, count)
}

func TestIterAllocatedChunksSingleChunk(t *testing.T) {
	arena := New()

	sizes := []uintptr{16, 8, 24}
	var ptrs []unsafe.Pointer
	for _, size := range sizes {
		ptrs = append(ptrs, arena.Alloc(size, 8))
	}

	var chunks [][]byte
	for c := range arena.IterAllocatedChunks() {
		chunks = append(chunks, c)
	}
	require.Len(t, chunks, 1)
	require.Len(t, chunks[0], 48)

	// The most recent allocation sits at the lowest address
	start := uintptr(unsafe.Pointer(unsafe.SliceData(chunks[0])))
	require.Equal(t, start, uintptr(ptrs[2]))
	require.Equal(t, start+24, uintptr(ptrs[1]))
	require.Equal(t, start+32, uintptr(ptrs[0]))

	// Consuming the recorded sizes from the back tiles the chunk exactly
	remaining := len(chunks[0])
	for i := len(sizes) - 1; i >= 0; i-- {
		require.GreaterOrEqual(t, remaining, int(sizes[i]))
		remaining -= int(sizes[i])
	}
	require.Zero(t, remaining)
}

func TestIterAllocatedChunksNewestFirst(t *testing.T) {
	arena := New(WithMinChunkSize(64))

	var ptrs []unsafe.Pointer
	for range 5 {
		ptrs = append(ptrs, arena.Alloc(48, 16))
	}
	require.Equal(t, []uintptr{64, 128, 256}, chunkCapacities(arena))

	var lengths []int
	var starts []uintptr
	for c := range arena.IterAllocatedChunks() {
		lengths = append(lengths, len(c))
		starts = append(starts, uintptr(unsafe.Pointer(unsafe.SliceData(c))))
	}
	require.Equal(t, []int{96, 96, 48}, lengths)
	require.Equal(t, []uintptr{uintptr(ptrs[4]), uintptr(ptrs[2]), uintptr(ptrs[0])}, starts)
}

func TestIterAllocatedChunksRestartable(t *testing.T) {
	arena := New(WithMinChunkSize(64))
	for range 4 {
		arena.Alloc(40, 8)
	}

	collect := func() []int {
		var lengths []int
		for c := range arena.IterAllocatedChunks() {
			lengths = append(lengths, len(c))
		}
		return lengths
	}
	first := collect()
	require.Equal(t, first, collect())

	// Stopping early leaves nothing behind
	for range arena.IterAllocatedChunks() {
		break
	}
	require.Equal(t, first, collect())
}

func TestIterAllocatedChunksRawMatchesSafe(t *testing.T) {
	arena := New(WithMinChunkSize(64))
	for i := range 20 {
		arena.Alloc(uintptr(i*3), 4)
	}

	type rawChunk struct {
		ptr unsafe.Pointer
		n   int
	}
	var raw []rawChunk
	for ptr, n := range arena.IterAllocatedChunksRaw() {
		raw = append(raw, rawChunk{ptr, n})
	}
	var safe []rawChunk
	for c := range arena.IterAllocatedChunks() {
		safe = append(safe, rawChunk{unsafe.Pointer(unsafe.SliceData(c)), len(c)})
	}
	require.Equal(t, raw, safe)
	require.Len(t, raw, arena.NumChunks())
}

func TestIterAllocatedChunksAfterReset(t *testing.T) {
	arena := New(WithMinChunkSize(64))
	arena.Alloc(64, 1)
	arena.Alloc(64, 1)

	arena.Reset()
	var lengths []int
	for c := range arena.IterAllocatedChunks() {
		lengths = append(lengths, len(c))
	}
	require.Equal(t, []int{0}, lengths)

	arena.Alloc(10, 1)
	lengths = lengths[:0]
	for c := range arena.IterAllocatedChunks() {
		lengths = append(lengths, len(c))
	}
	require.Equal(t, []int{10}, lengths)
}
