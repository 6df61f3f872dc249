// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"github.com/pkg/errors"
)

// Allocation failures. Fallible calls return one of these wrapped with the
// request that caused it; use errors.Is to classify.
var (
	// ErrLayout reports an invalid size/alignment pair: a non power of two
	// alignment, an overflow while rounding, or a type that cannot live in
	// arena memory.
	ErrLayout = errors.New("arena: invalid layout")

	// ErrProviderExhausted reports that the memory provider could not
	// reserve a new chunk.
	ErrProviderExhausted = errors.New("arena: memory provider exhausted")

	// ErrAllocationLimitExceeded reports that a new chunk would push the
	// reserved capacity over the configured allocation limit.
	ErrAllocationLimitExceeded = errors.New("arena: allocation limit exceeded")
)
