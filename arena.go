// SPDX-License-Identifier: Apache-2.0

// Package arena implements a single-owner bump allocator.
//
// A Bump hands out memory from a chain of chunks by moving a cursor
// downward from the high end of the current chunk. Nothing is freed
// individually; every chunk goes back to its Provider when the arena is
// released. Memory handed out by an arena is not scanned by the garbage
// collector, so the typed helpers refuse types that contain Go pointers.
package arena

import (
	"unsafe"
)

// Arena is an interface that describes a memory allocation arena.
type Arena interface {
	// Alloc allocates memory of the given size and returns a pointer to it.
	// The alignment parameter specifies the alignment of the allocated memory
	// and must be a power of two. Alloc panics when the request cannot be served.
	Alloc(size, alignment uintptr) unsafe.Pointer

	// TryAlloc behaves like Alloc but reports failures as an error wrapping
	// ErrLayout, ErrProviderExhausted or ErrAllocationLimitExceeded.
	TryAlloc(size, alignment uintptr) (unsafe.Pointer, error)

	// Reset discards every allocation while keeping the newest chunk for reuse.
	// After invoking this method any pointer previously returned by Alloc becomes immediately invalid.
	Reset()

	// Release returns all of the arena's chunks to the memory provider.
	// Pointers previously returned by Alloc must not be used afterwards.
	Release()

	// Len returns the number of bytes handed out since the last Reset,
	// including alignment padding between allocations.
	Len() int

	// Cap returns the total capacity reserved by the arena's chunks.
	Cap() int

	// Peak returns the highest value Len has reached.
	// This value is not reset when Reset is called, allowing tracking of maximum usage.
	Peak() int
}

// Allocate allocates zeroed memory for a value of type T using the provided Arena.
// If passed arena is nil, it allocates memory using Go's built-in new function.
// It panics if T contains pointers or the arena cannot serve the request.
func Allocate[T any](a Arena) *T {
	if a == nil {
		return new(T)
	}
	if err := checkPointerFree[T](); err != nil {
		fail(err)
	}
	size, align := layoutOf[T]()
	return viewAs[T](a.Alloc(size, align))
}

// AllocateValue copies v into the arena and returns a pointer to the copy.
func AllocateValue[T any](a Arena, v T) *T {
	return must(TryAllocateValue(a, v))
}

// TryAllocateValue copies v into the arena and returns a pointer to the copy.
// The pointer stays valid as long as the arena is neither reset nor released.
func TryAllocateValue[T any](a Arena, v T) (*T, error) {
	if a == nil {
		p := new(T)
		*p = v
		return p, nil
	}
	if err := checkPointerFree[T](); err != nil {
		return nil, err
	}
	size, align := layoutOf[T]()
	ptr, err := a.TryAlloc(size, align)
	if err != nil {
		return nil, err
	}
	p := viewAs[T](ptr)
	*p = v
	return p, nil
}
