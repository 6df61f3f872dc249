// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"runtime"
	"unsafe"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// Bump is a bump allocator over a chain of chunks.
//
// Allocation moves the cursor of the current chunk downward. When the
// current chunk cannot hold a request a new chunk becomes current and the
// old one keeps whatever it holds; it is never allocated from again.
//
// A Bump is not safe for concurrent use. Create it with New or NewWithCapacity.
type Bump struct {
	chain *chain

	minChunkSize uintptr
	maxChunkSize uintptr
	growthFactor uintptr
	lastRegular  uintptr // capacity of the newest chunk sized by the growth policy

	limit   uintptr
	limited bool

	used uintptr // bytes handed out since the last Reset
	peak uintptr
}

var _ Arena = (*Bump)(nil)

// New creates an empty arena. No memory is reserved until the first allocation.
func New(opts ...Option) *Bump {
	b := &Bump{
		chain:        &chain{provider: &HeapProvider{}},
		minChunkSize: DefaultMinChunkSize,
		maxChunkSize: DefaultMaxChunkSize,
		growthFactor: DefaultGrowthFactor,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.normalize()

	// Chunks of an arena that is dropped without Release go back to the
	// provider once the Bump is unreachable.
	runtime.AddCleanup(b, func(ch *chain) { ch.releaseAll() }, b.chain)
	return b
}

// NewWithCapacity creates an arena whose first chunk holds at least capacity bytes.
// The growth policy continues from that chunk.
func NewWithCapacity(capacity int, opts ...Option) (*Bump, error) {
	b := New(opts...)
	if capacity <= 0 {
		return b, nil
	}
	size, ok := roundUp(uintptr(capacity), chunkAlign)
	if !ok {
		return nil, errors.Wrapf(ErrLayout, "capacity %d overflows", capacity)
	}
	if err := b.checkLimit(size); err != nil {
		return nil, err
	}
	if _, err := b.chain.push(size, chunkAlign); err != nil {
		return nil, err
	}
	b.lastRegular = size
	return b, nil
}

// Alloc satisfies the Arena interface. It panics with the error TryAlloc would return.
func (b *Bump) Alloc(size, alignment uintptr) unsafe.Pointer {
	return must(b.TryAlloc(size, alignment))
}

// TryAlloc satisfies the Arena interface.
// The returned memory is zeroed and aligned to alignment.
// A zero size request consumes no bytes, and on an arena without chunks it
// does not reserve one.
func (b *Bump) TryAlloc(size, alignment uintptr) (unsafe.Pointer, error) {
	if err := checkLayout(size, alignment); err != nil {
		return nil, err
	}
	c := b.chain.current()
	if c == nil && size == 0 && alignment <= zeroSizeMaxAlign {
		return zeroSizePointer(alignment), nil
	}
	if c != nil {
		before := c.cursor
		if ptr, ok := c.alloc(size, alignment); ok {
			b.consumed(before - c.cursor)
			return ptr, nil
		}
	}
	return b.allocSlow(size, alignment)
}

// allocSlow starts a new chunk that can hold the request.
func (b *Bump) allocSlow(size, alignment uintptr) (unsafe.Pointer, error) {
	align := max(alignment, chunkAlign)
	required, ok := roundUp(size, align)
	if !ok || required > maxSize-footerSize-align {
		return nil, errors.Wrapf(ErrLayout, "size %d aligned to %d does not fit a chunk", size, alignment)
	}

	preferred, regular := b.nextChunkCapacity(required, align)
	capacity, err := b.fitUnderLimit(preferred, required, align)
	if err != nil {
		return nil, err
	}
	c, err := b.chain.push(capacity, align)
	if err != nil {
		return nil, err
	}
	// A chunk shrunk to fit the limit does not restart the growth sequence.
	if regular && capacity == preferred {
		b.lastRegular = capacity
	} else if !regular {
		log.Debug.Printf("arena: dedicated chunk of %d bytes for a %d byte request", capacity, size)
	}

	ptr, ok := c.alloc(size, alignment)
	if !ok {
		panic("arena: failed to allocate on newly created chunk")
	}
	b.consumed(c.capacity - c.cursor)
	return ptr, nil
}

// nextChunkCapacity applies the growth policy. It reports false when the
// request is oversized and gets a chunk of exactly the required size.
func (b *Bump) nextChunkCapacity(required, align uintptr) (uintptr, bool) {
	preferred := b.minChunkSize
	if b.lastRegular > 0 {
		if b.lastRegular > b.maxChunkSize/b.growthFactor {
			preferred = b.maxChunkSize
		} else {
			preferred = max(b.lastRegular*b.growthFactor, b.minChunkSize)
		}
	}
	preferred, _ = roundUp(preferred, align)
	if required > preferred {
		return required, false
	}
	return preferred, true
}

func (b *Bump) consumed(n uintptr) {
	b.used += n
	if b.used > b.peak {
		b.peak = b.used
	}
}

// Reset satisfies the Arena interface.
// Every chunk but the newest is returned to the provider.
func (b *Bump) Reset() {
	b.chain.releaseOlder()
	if c := b.chain.current(); c != nil {
		c.reset()
	}
	b.used = 0
}

// Release satisfies the Arena interface.
// The arena is empty afterwards and may be used again.
func (b *Bump) Release() {
	n := len(b.chain.chunks)
	b.chain.releaseAll()
	b.used = 0
	b.lastRegular = 0
	log.Debug.Printf("arena: released %d chunks", n)
}

// Len satisfies the Arena interface.
func (b *Bump) Len() int {
	return int(b.used)
}

// Cap satisfies the Arena interface. It equals AllocatedBytes.
func (b *Bump) Cap() int {
	return int(b.chain.reserved)
}

// Peak satisfies the Arena interface.
func (b *Bump) Peak() int {
	return int(b.peak)
}

// NumChunks returns the number of chunks in the chain.
func (b *Bump) NumChunks() int {
	return len(b.chain.chunks)
}
