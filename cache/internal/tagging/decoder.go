package tagging

// A Decoder splits an address into the tag and the set index for a cache with
// 2^SetBits sets and 2^BlockBits bytes per block.
type Decoder struct {
	SetBits   int
	BlockBits int
}

// NewDecoder creates a Decoder.
func NewDecoder(setBits, blockBits int) Decoder {
	return Decoder{
		SetBits:   setBits,
		BlockBits: blockBits,
	}
}

// Decode returns the tag and the set index of an address. The block offset
// is dropped.
func (d Decoder) Decode(addr uint64) (tag uint64, setID int) {
	setID = int((addr >> d.BlockBits) & d.setMask())
	tag = addr >> (d.SetBits + d.BlockBits)

	return tag, setID
}

func (d Decoder) setMask() uint64 {
	// A shift of 64 or more yields 0 in Go, so the mask saturates cleanly.
	return (uint64(1) << d.SetBits) - 1
}
