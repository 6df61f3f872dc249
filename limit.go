// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// SetAllocationLimit caps the total capacity the arena may reserve.
// A limit below AllocatedBytes does not release anything; it only stops
// further chunks from being reserved. Negative limits are treated as zero.
func (b *Bump) SetAllocationLimit(limit int) {
	b.limit = uintptr(max(limit, 0))
	b.limited = true
}

// ClearAllocationLimit removes the allocation limit.
func (b *Bump) ClearAllocationLimit() {
	b.limit = 0
	b.limited = false
}

// AllocationLimit returns the current limit and whether one is set.
func (b *Bump) AllocationLimit() (int, bool) {
	return int(b.limit), b.limited
}

// AllocationLimitRemaining returns how many more bytes of chunk capacity may
// be reserved under the limit, and false when no limit is set.
func (b *Bump) AllocationLimitRemaining() (int, bool) {
	if !b.limited {
		return 0, false
	}
	if b.chain.reserved >= b.limit {
		return 0, true
	}
	return int(b.limit - b.chain.reserved), true
}

// AllocatedBytes returns the total capacity of all chunks currently owned by the arena.
func (b *Bump) AllocatedBytes() int {
	return int(b.chain.reserved)
}

func (b *Bump) fitsUnderLimit(capacity uintptr) bool {
	if !b.limited {
		return true
	}
	return b.chain.reserved <= b.limit && capacity <= b.limit-b.chain.reserved
}

func (b *Bump) checkLimit(capacity uintptr) error {
	if b.fitsUnderLimit(capacity) {
		return nil
	}
	log.Debug.Printf("arena: chunk of %d bytes refused, %d of %d bytes reserved", capacity, b.chain.reserved, b.limit)
	return errors.Wrapf(ErrAllocationLimitExceeded, "chunk of %d bytes with %d of %d bytes reserved", capacity, b.chain.reserved, b.limit)
}

// fitUnderLimit shrinks a preferred chunk capacity by halving until it fits
// the limit, but never below required.
func (b *Bump) fitUnderLimit(capacity, required, align uintptr) (uintptr, error) {
	for !b.fitsUnderLimit(capacity) {
		if capacity <= required {
			return 0, b.checkLimit(required)
		}
		next, _ := roundUp(max(capacity/2, required), align)
		if next >= capacity {
			next = required
		}
		capacity = next
	}
	return capacity, nil
}
