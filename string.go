// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"strings"
)

// AllocateString copies s into the arena and returns a string backed by the copy.
func AllocateString(a Arena, s string) string {
	return must(TryAllocateString(a, s))
}

// TryAllocateString is the fallible form of AllocateString.
// With a nil arena the copy lives on the Go heap.
func TryAllocateString(a Arena, s string) (string, error) {
	if a == nil {
		return strings.Clone(s), nil
	}
	if len(s) == 0 {
		return "", nil
	}
	ptr, err := a.TryAlloc(uintptr(len(s)), 1)
	if err != nil {
		return "", err
	}
	copy(viewBytes(ptr, len(s)), s)
	return viewString(ptr, len(s)), nil
}

// AllocateBytes copies b into the arena.
func AllocateBytes(a Arena, b []byte) []byte {
	return must(TryAllocateBytes(a, b))
}

// TryAllocateBytes is the fallible form of AllocateBytes.
// The result has the same length as b and a capacity equal to its length.
func TryAllocateBytes(a Arena, b []byte) ([]byte, error) {
	dst, err := TryAllocateSlice[byte](a, len(b), len(b))
	if err != nil {
		return nil, err
	}
	copy(dst, b)
	return dst, nil
}
