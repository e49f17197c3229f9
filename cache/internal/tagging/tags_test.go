package tagging

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Tags", func() {
	var (
		tags *tagArrayImpl
	)

	BeforeEach(func() {
		tags = NewTagArray(10, 6, 4).(*tagArrayImpl)
	})

	It("should create all sets and ways invalid", func() {
		Expect(tags.Sets()).To(HaveLen(1024))

		for i, set := range tags.Sets() {
			Expect(set.Blocks).To(HaveLen(4))

			for j, block := range set.Blocks {
				Expect(block.IsValid).To(BeFalse())
				Expect(block.SetID).To(Equal(i))
				Expect(block.WayID).To(Equal(j))
				Expect(block.LastVisit).To(BeZero())
			}
		}
	})

	It("should get set", func() {
		set, setID := tags.GetSet(0x1040)

		Expect(setID).To(Equal(0x41))
		Expect(set).To(BeIdenticalTo(&tags.Sets()[0x41]))
	})

	It("should lookup", func() {
		tag, setID := tags.Decode(0x10040)
		tags.Update(Block{
			Tag:     tag,
			SetID:   setID,
			WayID:   2,
			IsValid: true,
		})

		block, ok := tags.Lookup(0x10040)

		Expect(ok).To(BeTrue())
		Expect(block.WayID).To(Equal(2))
		Expect(block.Tag).To(Equal(tag))
	})

	It("should find the block for any offset within the block", func() {
		tag, setID := tags.Decode(0x10040)
		tags.Update(Block{Tag: tag, SetID: setID, IsValid: true})

		_, ok := tags.Lookup(0x1007f)

		Expect(ok).To(BeTrue())
	})

	It("should return false when lookup cannot find block", func() {
		block, ok := tags.Lookup(0x100)

		Expect(ok).To(BeFalse())
		Expect(block).To(BeZero())
	})

	It("should return false if block is invalid", func() {
		tag, setID := tags.Decode(0x100)
		tags.Update(Block{Tag: tag, SetID: setID, IsValid: false})

		_, ok := tags.Lookup(0x100)

		Expect(ok).To(BeFalse())
	})

	It("should give each visit a strictly fresher recency", func() {
		set, _ := tags.GetSet(0x0)

		tags.Visit(set.Blocks[1])
		tags.Visit(set.Blocks[3])
		tags.Visit(set.Blocks[1])

		Expect(set.Blocks[3].LastVisit).To(BeNumerically(">", 0))
		Expect(set.Blocks[1].LastVisit).
			To(BeNumerically(">", set.Blocks[3].LastVisit))
		Expect(set.Blocks[0].LastVisit).To(BeZero())
	})

	It("should reset", func() {
		tags.Update(Block{Tag: 9, SetID: 3, WayID: 1, IsValid: true})
		tags.Visit(tags.Sets()[3].Blocks[1])

		tags.Reset()

		Expect(tags.VisitTick).To(BeZero())
		Expect(tags.Sets()[3].Blocks[1].IsValid).To(BeFalse())
	})
})
