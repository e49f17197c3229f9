package cache

import (
	"github.com/sarchlab/csim/cache/internal/tagging"
)

// A Builder can build caches.
type Builder struct {
	geometry Geometry
}

// DefaultGeometry is a direct-mapped cache with 4 sets of 4-byte blocks.
func DefaultGeometry() Geometry {
	return Geometry{
		SetBits:     2,
		BlockBits:   2,
		LinesPerSet: 1,
	}
}

// MakeBuilder creates a builder with the default geometry.
func MakeBuilder() Builder {
	return Builder{
		geometry: DefaultGeometry(),
	}
}

// WithGeometry sets the whole geometry at once.
func (b Builder) WithGeometry(g Geometry) Builder {
	b.geometry = g
	return b
}

// WithSetBits sets the number of set index bits.
func (b Builder) WithSetBits(n int) Builder {
	b.geometry.SetBits = n
	return b
}

// WithBlockBits sets the number of block offset bits.
func (b Builder) WithBlockBits(n int) Builder {
	b.geometry.BlockBits = n
	return b
}

// WithLinesPerSet sets the associativity.
func (b Builder) WithLinesPerSet(n int) Builder {
	b.geometry.LinesPerSet = n
	return b
}

// Build creates a cache with all lines empty. It fails if the geometry is
// invalid.
func (b Builder) Build(name string) (*Cache, error) {
	err := b.geometry.Validate()
	if err != nil {
		return nil, err
	}

	c := &Cache{
		Name:     name,
		geometry: b.geometry,
		tags: tagging.NewTagArray(
			b.geometry.SetBits,
			b.geometry.BlockBits,
			b.geometry.LinesPerSet,
		),
		victimFinder: tagging.NewLRUVictimFinder(),
	}

	return c, nil
}
