// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"unsafe"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// footerSize is reserved behind every chunk payload, so the end of a chunk
// is still an address inside its block.
const footerSize = chunkAlign

// zeroSizeMaxAlign is the largest alignment a zero size request can be
// served with before the arena owns a chunk.
const zeroSizeMaxAlign = 4096

// zeroSizeBase holds the addresses handed out for zero size requests on an
// arena without chunks. Nothing is ever written to it.
var zeroSizeBase [2 * zeroSizeMaxAlign]byte

func zeroSizePointer(align uintptr) unsafe.Pointer {
	start := uintptr(unsafe.Pointer(&zeroSizeBase[0]))
	offset := roundDown(start+zeroSizeMaxAlign, align) - start
	return unsafe.Pointer(&zeroSizeBase[offset])
}

// chunk is one reserved block and its bump cursor.
// The payload spans [base, base+capacity); bytes in [cursor, capacity) have
// been handed out, the most recent allocation sitting at the lowest address.
type chunk struct {
	block    Block
	base     unsafe.Pointer
	cursor   uintptr // offset from base
	capacity uintptr
}

func newChunk(p Provider, capacity, align uintptr) (*chunk, error) {
	total, ok := addSize(capacity, footerSize)
	if !ok {
		return nil, errors.Wrapf(ErrLayout, "chunk capacity %d overflows", capacity)
	}
	block, err := p.Reserve(total, align)
	if err != nil {
		if errors.Is(err, ErrProviderExhausted) {
			return nil, err
		}
		return nil, errors.Wrapf(ErrProviderExhausted, "reserve %d bytes aligned to %d: %v", total, align, err)
	}
	base := unsafe.Pointer(unsafe.SliceData(block.Bytes))
	if uintptr(len(block.Bytes)) < total || uintptr(base)%align != 0 {
		p.Release(block)
		return nil, errors.Wrapf(ErrProviderExhausted, "provider returned %d bytes at %p for %d bytes aligned to %d", len(block.Bytes), base, total, align)
	}
	return &chunk{
		block:    block,
		base:     base,
		cursor:   capacity,
		capacity: capacity,
	}, nil
}

// alloc bumps the cursor down for a request that already passed checkLayout.
// The returned memory is zeroed.
func (c *chunk) alloc(size, align uintptr) (unsafe.Pointer, bool) {
	if size > c.cursor {
		return nil, false
	}
	start := uintptr(c.base)
	candidate := roundDown(start+c.cursor-size, align)
	if candidate < start {
		return nil, false
	}
	c.cursor = candidate - start
	ptr := unsafe.Add(c.base, c.cursor)

	// This piece of code will be translated into a runtime.memclrNoHeapPointers
	// invocation by the compiler.
	clear(viewBytes(ptr, int(size)))
	return ptr, true
}

// allocated returns the handed out part of the chunk.
func (c *chunk) allocated() (unsafe.Pointer, int) {
	return unsafe.Add(c.base, c.cursor), int(c.capacity - c.cursor)
}

func (c *chunk) reset() {
	c.cursor = c.capacity
}

func (c *chunk) release(p Provider) {
	p.Release(c.block)
	c.block = Block{}
	c.base = nil
	c.cursor, c.capacity = 0, 0
}

// chain owns every chunk of an arena, oldest first; the last entry is the
// current chunk. It is kept apart from Bump so that it can be released by a
// cleanup once the Bump is unreachable.
type chain struct {
	provider Provider
	chunks   []*chunk
	reserved uintptr // sum of chunk capacities
}

func (ch *chain) current() *chunk {
	if len(ch.chunks) == 0 {
		return nil
	}
	return ch.chunks[len(ch.chunks)-1]
}

func (ch *chain) push(capacity, align uintptr) (*chunk, error) {
	c, err := newChunk(ch.provider, capacity, align)
	if err != nil {
		return nil, err
	}
	ch.chunks = append(ch.chunks, c)
	ch.reserved += capacity
	log.Debug.Printf("arena: reserved chunk of %d bytes aligned to %d (%d chunks, %d bytes reserved)",
		capacity, align, len(ch.chunks), ch.reserved)
	return c, nil
}

// releaseOlder releases every chunk but the current one, newest first.
func (ch *chain) releaseOlder() {
	if len(ch.chunks) < 2 {
		return
	}
	last := len(ch.chunks) - 1
	for i := last - 1; i >= 0; i-- {
		ch.reserved -= ch.chunks[i].capacity
		ch.chunks[i].release(ch.provider)
		ch.chunks[i] = nil
	}
	ch.chunks[0] = ch.chunks[last]
	clear(ch.chunks[1:])
	ch.chunks = ch.chunks[:1]
}

// releaseAll releases every chunk, newest first and the oldest last.
func (ch *chain) releaseAll() {
	for i := len(ch.chunks) - 1; i >= 0; i-- {
		ch.reserved -= ch.chunks[i].capacity
		ch.chunks[i].release(ch.provider)
		ch.chunks[i] = nil
	}
	ch.chunks = ch.chunks[:0]
}
