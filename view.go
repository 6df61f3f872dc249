// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// This file is the only place where arena memory is reinterpreted as typed
// values. Every pointer passed in here was returned by Alloc or TryAlloc for
// the exact size and alignment of the view.

// pointerFree caches, per type, whether values of that type may be stored in
// memory the garbage collector does not scan.
var pointerFree sync.Map // reflect.Type -> bool

func layoutOf[T any]() (size, align uintptr) {
	var x T
	return unsafe.Sizeof(x), unsafe.Alignof(x)
}

func checkPointerFree[T any]() error {
	t := reflect.TypeFor[T]()
	free, ok := pointerFree.Load(t)
	if !ok {
		free, _ = pointerFree.LoadOrStore(t, !hasPointers(t))
	}
	if !free.(bool) {
		return errors.Wrapf(ErrLayout, "type %s contains pointers", t)
	}
	return nil
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func viewAs[T any](p unsafe.Pointer) *T {
	return (*T)(p)
}

func viewSlice[T any](p unsafe.Pointer, n int) []T {
	return unsafe.Slice((*T)(p), n)
}

func viewBytes(p unsafe.Pointer, n int) []byte {
	return unsafe.Slice((*byte)(p), n)
}

func viewString(p unsafe.Pointer, n int) string {
	return unsafe.String((*byte)(p), n)
}

// fail is the single exit of every infallible entry point.
func fail(err error) {
	log.Error.Printf("%v", err)
	panic(err)
}

func must[T any](v T, err error) T {
	if err != nil {
		fail(err)
	}
	return v
}
