// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type bigValue struct {
	data [32]uint64
}

func newBigValue(x uint64) bigValue {
	var v bigValue
	for i := range v.data {
		v.data[i] = x
	}
	return v
}

type span struct {
	start, end uintptr
}

func spanOf[T any](p *T) span {
	start := uintptr(unsafe.Pointer(p))
	return span{start, start + unsafe.Sizeof(*p)}
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

func (s span) contains(o span) bool {
	return s.start <= o.start && o.end <= s.end
}

func requireNoOverlap(t require.TestingT, spans []span, s span) {
	for _, o := range spans {
		require.False(t, s.overlaps(o), "%v overlaps %v", s, o)
	}
}

func TestPropertyBigValuesRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOf(rapid.Uint64()).Draw(t, "values")
		arena := New()

		var allocated []*bigValue
		for _, x := range values {
			allocated = append(allocated, AllocateValue(arena, newBigValue(x)))
		}
		for i, x := range values {
			require.Equal(t, newBigValue(x), *allocated[i])
		}
	})
}

func TestPropertyBigValuesNeverOverlap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 200).Draw(t, "n")
		arena := New()

		var spans []span
		for i := range n {
			s := spanOf(AllocateValue(arena, newBigValue(uint64(i))))
			requireNoOverlap(t, spans, s)
			spans = append(spans, s)
		}
	})
}

func TestPropertyHeterogeneousAllocationsNeverOverlap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kinds := rapid.SliceOf(rapid.IntRange(0, 5)).Draw(t, "kinds")
		arena := New()

		var spans []span
		for _, kind := range kinds {
			var s span
			switch kind {
			case 0:
				s = spanOf(AllocateValue(arena, rapid.Uint8().Draw(t, "u8")))
			case 1:
				s = spanOf(AllocateValue(arena, [2]uint8{rapid.Uint8().Draw(t, "u8"), rapid.Uint8().Draw(t, "u8")}))
			case 2:
				s = spanOf(AllocateValue(arena, [4]uint8{rapid.Uint8().Draw(t, "u8")}))
			case 3:
				s = spanOf(AllocateValue(arena, rapid.Uint64().Draw(t, "u64")))
			case 4:
				s = spanOf(AllocateValue(arena, [2]uint64{rapid.Uint64().Draw(t, "u64")}))
			case 5:
				s = spanOf(AllocateValue(arena, [4]uint64{rapid.Uint64().Draw(t, "u64")}))
			}
			requireNoOverlap(t, spans, s)
			spans = append(spans, s)
		}
	})
}

func TestPropertyAlignmentAndChunkAccounting(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOf(rapid.IntRange(0, 1<<20)).Draw(t, "sizes")

		for _, alignment := range []uintptr{1, 2, 4, 8, 16} {
			arena, err := NewWithCapacity(513)
			require.NoError(t, err)

			sizes := make([]uintptr, 0, len(raw))
			for _, size := range raw {
				sizes = append(sizes, uintptr(size%10)*alignment)
			}
			for _, size := range sizes {
				ptr := arena.Alloc(size, alignment)
				require.Zero(t, uintptr(ptr)%alignment)
			}

			for chunk := range arena.IterAllocatedChunks() {
				remaining := uintptr(len(chunk))
				for remaining > 0 {
					require.NotEmpty(t, sizes, "too many bytes in the chunk output")
					size := sizes[len(sizes)-1]
					sizes = sizes[:len(sizes)-1]
					require.GreaterOrEqual(t, remaining, size, "returned chunk contained padding")
					remaining -= size
				}
			}
			var leftover uintptr
			for _, size := range sizes {
				leftover += size
			}
			require.Zero(t, leftover)
		}
	})
}

func TestPropertySliceFill(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 50).Draw(t, "allocs")
		arena := New()

		var spans []span
		for range n {
			val := rapid.Byte().Draw(t, "val")
			length := rapid.IntRange(0, 99).Draw(t, "len")

			s := AllocateSliceFill(arena, length, val)
			require.Len(t, s, length)
			for _, v := range s {
				require.Equal(t, val, v)
			}

			start := uintptr(unsafe.Pointer(unsafe.SliceData(s)))
			r := span{start, start + uintptr(len(s))}
			for _, o := range spans {
				require.True(t, r.end <= o.start || o.end <= r.start, "%v overlaps %v", r, o)
			}
			spans = append(spans, r)
		}
	})
}

func TestPropertyStrings(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		inputs := rapid.SliceOf(rapid.String()).Draw(t, "strings")
		arena := New()

		var allocated []string
		for _, s := range inputs {
			allocated = append(allocated, AllocateString(arena, s))
		}
		require.Len(t, allocated, len(inputs))
		for i, s := range inputs {
			require.Equal(t, s, allocated[i])
		}
	})
}

func TestPropertyAllocationsLiveInAChunk(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOf(rapid.Uint64()).Draw(t, "values")
		arena := New()

		var allocated []*bigValue
		for _, x := range values {
			allocated = append(allocated, AllocateValue(arena, newBigValue(x)))
		}

		var chunks []span
		for ptr, n := range arena.IterAllocatedChunksRaw() {
			chunks = append(chunks, span{uintptr(ptr), uintptr(ptr) + uintptr(n)})
		}
		for _, v := range allocated {
			s := spanOf(v)
			found := 0
			for _, c := range chunks {
				if c.contains(s) {
					found++
				}
			}
			require.Equal(t, 1, found, "allocation %v", s)
		}
	})
}

func TestPropertyRawAndSafeChunksAgree(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOf(rapid.Uint64()).Draw(t, "values")
		arena := New()
		for _, x := range values {
			AllocateValue(arena, newBigValue(x))
		}

		var raw []span
		for ptr, n := range arena.IterAllocatedChunksRaw() {
			raw = append(raw, span{uintptr(ptr), uintptr(ptr) + uintptr(n)})
		}
		var safe []span
		for c := range arena.IterAllocatedChunks() {
			start := uintptr(unsafe.Pointer(unsafe.SliceData(c)))
			safe = append(safe, span{start, start + uintptr(len(c))})
		}
		require.Equal(t, raw, safe)
	})
}

func TestPropertyLimitIsNeverExceeded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(0, 1<<24).Draw(t, "limit")
		arena := New()
		arena.SetAllocationLimit(limit)

		for range 32 {
			_, _ = arena.TryAlloc(uintptr(limit/16), 1)
			require.LessOrEqual(t, arena.AllocatedBytes(), limit)
		}
	})
}
