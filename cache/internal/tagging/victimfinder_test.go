package tagging

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LRUVictimFinder", func() {
	var (
		finder *LRUVictimFinder
		set    *Set
	)

	BeforeEach(func() {
		finder = NewLRUVictimFinder()
		set = &Set{Blocks: []Block{
			{WayID: 0},
			{WayID: 1},
			{WayID: 2},
			{WayID: 3},
		}}
	})

	It("should pick the lowest empty way first", func() {
		set.Blocks[0].IsValid = true
		set.Blocks[0].LastVisit = 1

		victim := finder.FindVictim(set)

		Expect(victim.WayID).To(Equal(1))
	})

	It("should pick the least recently used block when full", func() {
		for i, lastVisit := range []uint64{7, 3, 9, 5} {
			set.Blocks[i].IsValid = true
			set.Blocks[i].LastVisit = lastVisit
		}

		victim := finder.FindVictim(set)

		Expect(victim.WayID).To(Equal(1))
	})

	It("should break ties by the lowest way", func() {
		for i := range set.Blocks {
			set.Blocks[i].IsValid = true
			set.Blocks[i].LastVisit = 4
		}
		set.Blocks[0].LastVisit = 6

		victim := finder.FindVictim(set)

		Expect(victim.WayID).To(Equal(1))
	})

	It("should evict the only block of a direct-mapped set", func() {
		set.Blocks = set.Blocks[:1]
		set.Blocks[0].IsValid = true

		victim := finder.FindVictim(set)

		Expect(victim.WayID).To(Equal(0))
	})
})
