// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"iter"
	"unsafe"
)

// IterAllocatedChunks yields, for every chunk from the newest to the oldest,
// the bytes handed out from it. Unused capacity is never included.
//
// Inside a chunk allocations are laid out downward: the lowest address holds
// the most recent allocation and the highest the oldest one. Walking each
// slice from its start and the chunks in the yielded order visits
// allocations from the most recent to the oldest.
//
// Each call starts a new walk. The arena must not allocate while a walk is in progress.
func (b *Bump) IterAllocatedChunks() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for ptr, n := range b.IterAllocatedChunksRaw() {
			if !yield(viewBytes(ptr, n)) {
				return
			}
		}
	}
}

// IterAllocatedChunksRaw is the untyped form of IterAllocatedChunks and
// yields the start address and length of the same ranges.
func (b *Bump) IterAllocatedChunksRaw() iter.Seq2[unsafe.Pointer, int] {
	return func(yield func(unsafe.Pointer, int) bool) {
		chunks := b.chain.chunks
		for i := len(chunks) - 1; i >= 0; i-- {
			if !yield(chunks[i].allocated()) {
				return
			}
		}
	}
}
