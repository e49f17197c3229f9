package tagging

// A VictimFinder decides which block should receive a new tag.
type VictimFinder interface {
	FindVictim(set *Set) Block
}

// LRUVictimFinder evicts the least recently used block
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	e := new(LRUVictimFinder)
	return e
}

// FindVictim returns the first empty block of a set. If the set is full, it
// returns the least recently used block, preferring the lower way on a tie.
func (e *LRUVictimFinder) FindVictim(set *Set) Block {
	for _, block := range set.Blocks {
		if !block.IsValid {
			return block
		}
	}

	victim := set.Blocks[0]
	for _, block := range set.Blocks[1:] {
		if block.LastVisit < victim.LastVisit {
			victim = block
		}
	}

	return victim
}
