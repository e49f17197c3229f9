package cache

// Outcome classifies one access.
type Outcome int

// The outcomes of an access.
const (
	// Hit means the tag was resident.
	Hit Outcome = iota

	// MissClean means the tag was not resident and an empty line took it.
	MissClean

	// MissEviction means the tag was not resident and replaced the least
	// recently used line of a full set.
	MissEviction
)

// IsHit reports whether the access found its tag.
func (o Outcome) IsHit() bool {
	return o == Hit
}

// IsMiss reports whether the access missed, with or without eviction.
func (o Outcome) IsMiss() bool {
	return o == MissClean || o == MissEviction
}

// IsEviction reports whether the access evicted a resident line.
func (o Outcome) IsEviction() bool {
	return o == MissEviction
}

// Labels returns the words used for the outcome in verbose traces.
func (o Outcome) Labels() []string {
	switch o {
	case Hit:
		return []string{"hit"}
	case MissClean:
		return []string{"miss"}
	case MissEviction:
		return []string{"miss", "eviction"}
	default:
		panic("unknown outcome")
	}
}

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case MissClean:
		return "miss"
	case MissEviction:
		return "miss eviction"
	default:
		return "unknown"
	}
}

// AccessDetail is handed to hooks after every access.
type AccessDetail struct {
	Address    uint64
	Tag        uint64
	SetID      int
	WayID      int
	Outcome    Outcome
	EvictedTag uint64
}
