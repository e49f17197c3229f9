package tagging

// A TagArray holds the blocks of a cache and tracks how recently each block
// was used.
type TagArray interface {
	Lookup(reqAddr uint64) (Block, bool)
	Update(block Block)
	Visit(block Block)
	GetSet(reqAddr uint64) (set *Set, setID int)
	Decode(reqAddr uint64) (tag uint64, setID int)
	Sets() []Set
	Reset()
}

// NewTagArray creates a TagArray with 2^setBits sets of numWays blocks each.
func NewTagArray(
	setBits int,
	blockBits int,
	numWays int,
) TagArray {
	t := &tagArrayImpl{
		NumSets: 1 << setBits,
		NumWays: numWays,
		decoder: NewDecoder(setBits, blockBits),
	}

	t.Reset()

	return t
}

// A Block of a cache is the information that is associated with a cache line
type Block struct {
	Tag       uint64
	SetID     int
	WayID     int
	IsValid   bool
	LastVisit uint64
}

// A Set is a list of blocks where a certain piece memory can be stored at.
type Set struct {
	Blocks []Block
}

type tagArrayImpl struct {
	NumSets   int
	NumWays   int
	VisitTick uint64

	decoder Decoder
	sets    []Set
}

// Decode splits the address into tag and set index.
func (t *tagArrayImpl) Decode(reqAddr uint64) (tag uint64, setID int) {
	return t.decoder.Decode(reqAddr)
}

// GetSet gets the set that a certain address should store at.
func (t *tagArrayImpl) GetSet(reqAddr uint64) (set *Set, setID int) {
	_, setID = t.decoder.Decode(reqAddr)
	set = &t.sets[setID]

	return
}

// Lookup finds the valid block that holds reqAddr.
func (t *tagArrayImpl) Lookup(reqAddr uint64) (Block, bool) {
	tag, setID := t.decoder.Decode(reqAddr)

	for _, block := range t.sets[setID].Blocks {
		if block.IsValid && block.Tag == tag {
			return block, true
		}
	}

	return Block{}, false
}

// Update overwrites the stored block at the block's set and way.
func (t *tagArrayImpl) Update(block Block) {
	t.sets[block.SetID].Blocks[block.WayID] = block
}

// Visit marks the block as the most recently used one.
func (t *tagArrayImpl) Visit(block Block) {
	t.VisitTick++
	t.sets[block.SetID].Blocks[block.WayID].LastVisit = t.VisitTick
}

// Sets returns the sets. The caller must not modify them.
func (t *tagArrayImpl) Sets() []Set {
	return t.sets
}

// Reset will mark all the blocks in the directory invalid
func (t *tagArrayImpl) Reset() {
	t.VisitTick = 0
	t.sets = make([]Set, t.NumSets)

	for i := 0; i < t.NumSets; i++ {
		t.sets[i].Blocks = make([]Block, t.NumWays)
		for j := 0; j < t.NumWays; j++ {
			t.sets[i].Blocks[j] = Block{
				SetID: i,
				WayID: j,
			}
		}
	}
}
