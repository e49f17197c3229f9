package cache

import (
	"errors"
	"fmt"
)

// ErrInvalidGeometry is returned when a cache cannot be built from the given
// geometry.
var ErrInvalidGeometry = errors.New("invalid cache geometry")

// Geometry describes the shape of a cache. It stays fixed for a whole run.
type Geometry struct {
	// SetBits is the number of set index bits. The cache has 2^SetBits sets.
	SetBits int `json:"set_bits" yaml:"set_bits"`

	// BlockBits is the number of block offset bits. Each block holds
	// 2^BlockBits bytes.
	BlockBits int `json:"block_bits" yaml:"block_bits"`

	// LinesPerSet is the associativity.
	LinesPerSet int `json:"lines_per_set" yaml:"lines_per_set"`
}

// Validate checks that the geometry describes a cache that can be built.
func (g Geometry) Validate() error {
	switch {
	case g.SetBits < 0:
		return fmt.Errorf("%w: set bits must not be negative, got %d",
			ErrInvalidGeometry, g.SetBits)
	case g.BlockBits < 0:
		return fmt.Errorf("%w: block bits must not be negative, got %d",
			ErrInvalidGeometry, g.BlockBits)
	case g.LinesPerSet < 1:
		return fmt.Errorf("%w: lines per set must be at least 1, got %d",
			ErrInvalidGeometry, g.LinesPerSet)
	case g.SetBits+g.BlockBits > 64:
		return fmt.Errorf("%w: set bits plus block bits exceed 64, got %d",
			ErrInvalidGeometry, g.SetBits+g.BlockBits)
	case g.SetBits > 30:
		return fmt.Errorf("%w: %d set bits would need more sets than can "+
			"be allocated", ErrInvalidGeometry, g.SetBits)
	}

	return nil
}

// NumSets returns the number of sets.
func (g Geometry) NumSets() int {
	return 1 << g.SetBits
}

// BlockSize returns the number of bytes in a block.
func (g Geometry) BlockSize() uint64 {
	return uint64(1) << g.BlockBits
}

// TotalSize returns the maximum number of bytes can be stored in the cache.
func (g Geometry) TotalSize() uint64 {
	return uint64(g.NumSets()) * uint64(g.LinesPerSet) * g.BlockSize()
}

func (g Geometry) String() string {
	return fmt.Sprintf("s=%d E=%d b=%d", g.SetBits, g.LinesPerSet, g.BlockBits)
}
