// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"math"

	"github.com/pkg/errors"
)

const (
	// chunkAlign is the minimum alignment of every chunk payload and of
	// every chunk capacity.
	chunkAlign = 16

	// maxSize bounds every size the arena computes so that it fits a Go slice length.
	maxSize = uintptr(math.MaxInt)
)

func isPowerOfTwo(x uintptr) bool {
	return x != 0 && x&(x-1) == 0
}

// roundUp rounds n up to a multiple of align, which must be a power of two.
func roundUp(n, align uintptr) (uintptr, bool) {
	if n > maxSize-(align-1) {
		return 0, false
	}
	return (n + align - 1) &^ (align - 1), true
}

func roundDown(n, align uintptr) uintptr {
	return n &^ (align - 1)
}

func addSize(a, b uintptr) (uintptr, bool) {
	if a > maxSize-b {
		return 0, false
	}
	return a + b, true
}

func mulSize(n, size uintptr) (uintptr, bool) {
	if size != 0 && n > maxSize/size {
		return 0, false
	}
	return n * size, true
}

// checkLayout validates a request before any memory is touched.
func checkLayout(size, align uintptr) error {
	if !isPowerOfTwo(align) {
		return errors.Wrapf(ErrLayout, "alignment %d is not a power of two", align)
	}
	if align > maxSize/2+1 {
		return errors.Wrapf(ErrLayout, "alignment %d is too large", align)
	}
	if _, ok := roundUp(size, align); !ok {
		return errors.Wrapf(ErrLayout, "size %d overflows when aligned to %d", size, align)
	}
	return nil
}
