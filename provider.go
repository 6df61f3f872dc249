// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"math/bits"
	"unsafe"

	"github.com/pkg/errors"
)

// DefaultMaxReservation bounds a single HeapProvider reservation when
// HeapProvider.MaxReservation is zero: just under 64GB on 64-bit platforms
// and math.MaxInt32 bytes on 32-bit ones.
const DefaultMaxReservation = maxSize >> max(bits.UintSize-37, 0)

// Block is a reservation obtained from a Provider.
type Block struct {
	// Bytes is the usable region, aligned as requested and at least as long as requested.
	Bytes []byte
	// Base is the reservation as the underlying source handed it out.
	// It is what Release gives back.
	Base []byte
}

// Provider is the system memory source behind an arena's chunks.
// A Provider is only ever called by the arena that owns it.
type Provider interface {
	// Reserve returns a block of at least size bytes aligned to align.
	Reserve(size, align uintptr) (Block, error)
	// Release gives a block obtained from Reserve back to the provider.
	Release(b Block)
}

// HeapProvider reserves chunks on the Go heap.
// Blocks are reclaimed by the garbage collector once released.
type HeapProvider struct {
	// MaxReservation caps the size of one reservation; zero means DefaultMaxReservation.
	MaxReservation uintptr
}

// Reserve satisfies the Provider interface.
func (p *HeapProvider) Reserve(size, align uintptr) (blk Block, err error) {
	limit := p.MaxReservation
	if limit == 0 {
		limit = DefaultMaxReservation
	}
	total, ok := addSize(size, align-1)
	if !ok || total > limit {
		return Block{}, errors.Wrapf(ErrProviderExhausted, "heap reservation of %d bytes aligned to %d exceeds %d", size, align, limit)
	}

	defer func() {
		if r := recover(); r != nil {
			blk, err = Block{}, errors.Wrapf(ErrProviderExhausted, "heap reservation of %d bytes: %v", total, r)
		}
	}()
	base := make([]byte, total)
	return alignBlock(base, size, align), nil
}

// Release satisfies the Provider interface.
func (p *HeapProvider) Release(Block) {}

// alignBlock carves the aligned region of size bytes out of base, which must
// hold at least size+align-1 bytes.
func alignBlock(base []byte, size, align uintptr) Block {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(base)))
	off := (align - addr%align) % align
	return Block{
		Bytes: base[off : off+size : off+size],
		Base:  base,
	}
}
