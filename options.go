// SPDX-License-Identifier: Apache-2.0

package arena

const (
	// DefaultMinChunkSize is the capacity of the first chunk of an arena
	// created without a capacity hint.
	DefaultMinChunkSize = 512

	// DefaultMaxChunkSize caps geometric growth. Requests larger than the
	// regular chunk size still get a dedicated chunk of their own.
	DefaultMaxChunkSize = 4 << 20 // 4MB

	// DefaultGrowthFactor multiplies the previous regular chunk capacity.
	DefaultGrowthFactor = 2
)

// Option represents a configuration option for a Bump arena.
type Option func(*Bump)

// WithMinChunkSize sets the capacity of the first regular chunk and the floor for all later ones.
func WithMinChunkSize(size int) Option {
	return func(b *Bump) {
		b.minChunkSize = uintptr(max(size, 0))
	}
}

// WithMaxChunkSize sets the ceiling of geometric growth.
// Values below the minimum chunk size are raised to it.
func WithMaxChunkSize(size int) Option {
	return func(b *Bump) {
		b.maxChunkSize = uintptr(max(size, 0))
	}
}

// WithGrowthFactor sets how much larger each regular chunk is than the one before it.
// A factor of 1 keeps every regular chunk at the minimum size.
func WithGrowthFactor(factor int) Option {
	return func(b *Bump) {
		if factor >= 1 {
			b.growthFactor = uintptr(factor)
		}
	}
}

// WithAllocationLimit installs an allocation limit at construction, see SetAllocationLimit.
func WithAllocationLimit(limit int) Option {
	return func(b *Bump) {
		b.SetAllocationLimit(limit)
	}
}

// WithProvider sets the memory provider chunks are reserved from.
// The default is a HeapProvider.
func WithProvider(p Provider) Option {
	return func(b *Bump) {
		if p != nil {
			b.chain.provider = p
		}
	}
}

// normalize makes the chunk size policy consistent after options are applied.
func (b *Bump) normalize() {
	const ceiling = maxSize / 4
	b.minChunkSize = min(b.minChunkSize, ceiling)
	b.minChunkSize, _ = roundUp(b.minChunkSize, chunkAlign)
	b.maxChunkSize = min(max(b.maxChunkSize, b.minChunkSize), ceiling)
	b.maxChunkSize, _ = roundUp(b.maxChunkSize, chunkAlign)
}
