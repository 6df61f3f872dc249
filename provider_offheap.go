// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"sync"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
	"modernc.org/memory"
)

// OffHeapProvider reserves chunks from memory mapped outside the Go heap.
// Values stored there are invisible to the garbage collector and the memory
// is only returned by Release and Close.
//
// Calls are serialized, since chunks of an arena dropped without Release are
// given back from the runtime's cleanup goroutine.
type OffHeapProvider struct {
	mu     sync.Mutex
	alloc  memory.Allocator
	closed bool
}

// NewOffHeapProvider returns an empty provider.
func NewOffHeapProvider() *OffHeapProvider {
	return &OffHeapProvider{}
}

// Reserve satisfies the Provider interface. It fails once the provider is closed.
func (p *OffHeapProvider) Reserve(size, align uintptr) (Block, error) {
	total, ok := addSize(size, align-1)
	if !ok {
		return Block{}, errors.Wrapf(ErrProviderExhausted, "off-heap reservation of %d bytes aligned to %d overflows", size, align)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return Block{}, errors.Wrap(ErrProviderExhausted, "off-heap provider is closed")
	}
	base, err := p.alloc.Malloc(int(total))
	if err != nil {
		return Block{}, errors.Wrapf(ErrProviderExhausted, "off-heap reservation of %d bytes: %v", total, err)
	}
	return alignBlock(base, size, align), nil
}

// Release satisfies the Provider interface.
// Blocks released after Close are ignored; Close already unmapped them.
func (p *OffHeapProvider) Release(b Block) {
	if len(b.Base) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if err := p.alloc.Free(b.Base); err != nil {
		log.Error.Printf("arena: releasing off-heap block of %d bytes: %v", len(b.Base), err)
	}
}

// Close unmaps every page the provider still holds, including blocks of
// arenas that were never released. Memory handed out by those arenas must
// not be touched afterwards.
func (p *OffHeapProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.alloc.Close()
}
