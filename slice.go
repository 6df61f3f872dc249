// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"github.com/pkg/errors"
)

const growThreshold = 256

// AllocateSlice creates a zeroed slice of type T with a given length and capacity,
// using the provided Arena for memory allocation.
// If the arena is nil, it returns a slice using Go's built-in make function.
func AllocateSlice[T any](a Arena, len, cap int) []T {
	return must(TryAllocateSlice[T](a, len, cap))
}

// TryAllocateSlice is the fallible form of AllocateSlice.
func TryAllocateSlice[T any](a Arena, len, cap int) ([]T, error) {
	if len < 0 || cap < len {
		return nil, errors.Wrapf(ErrLayout, "slice length %d and capacity %d", len, cap)
	}
	if a == nil {
		return make([]T, len, cap), nil
	}
	if err := checkPointerFree[T](); err != nil {
		return nil, err
	}
	size, align := layoutOf[T]()
	bufSize, ok := mulSize(uintptr(cap), size)
	if !ok {
		return nil, errors.Wrapf(ErrLayout, "%d elements of %d bytes overflow", cap, size)
	}
	ptr, err := a.TryAlloc(bufSize, align)
	if err != nil {
		return nil, err
	}
	return viewSlice[T](ptr, cap)[:len], nil
}

// AllocateSliceFill allocates n densely packed elements and sets every one of them to v.
func AllocateSliceFill[T any](a Arena, n int, v T) []T {
	return must(TryAllocateSliceFill(a, n, v))
}

// TryAllocateSliceFill is the fallible form of AllocateSliceFill.
// The result has length n, even when n is zero.
func TryAllocateSliceFill[T any](a Arena, n int, v T) ([]T, error) {
	s, err := TryAllocateSlice[T](a, n, n)
	if err != nil {
		return nil, err
	}
	for i := range s {
		s[i] = v
	}
	return s, nil
}

// SliceAppend appends elements to a slice of type T using a provided Arena
// for memory allocation if needed.
func SliceAppend[T any](a Arena, s []T, data ...T) []T {
	return must(TrySliceAppend(a, s, data...))
}

// TrySliceAppend is the fallible form of SliceAppend. On failure s is left untouched.
func TrySliceAppend[T any](a Arena, s []T, data ...T) ([]T, error) {
	if a == nil {
		return append(s, data...), nil
	}
	s, err := growSlice(a, s, len(data))
	if err != nil {
		return nil, err
	}
	return append(s, data...), nil
}

// growSlice makes room for dataLen more elements, moving s into the arena
// when its capacity is exceeded.
func growSlice[T any](a Arena, s []T, dataLen int) ([]T, error) {
	newLen := len(s) + dataLen
	newCap := cap(s)

	if newCap > 0 {
		for newLen > newCap {
			if newCap < growThreshold {
				newCap *= 2
			} else {
				newCap += newCap / 4
			}
		}
	} else {
		newCap = dataLen
	}
	if newCap == cap(s) {
		return s, nil
	}
	s2, err := TryAllocateSlice[T](a, len(s), newCap)
	if err != nil {
		return nil, err
	}
	copy(s2, s)
	return s2, nil
}
