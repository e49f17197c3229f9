package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Geometry", func() {
	DescribeTable("validation",
		func(g Geometry, valid bool) {
			err := g.Validate()

			if valid {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(err).To(MatchError(ErrInvalidGeometry))
			}
		},
		Entry("smallest cache", Geometry{0, 0, 1}, true),
		Entry("typical cache", Geometry{4, 4, 2}, true),
		Entry("negative set bits", Geometry{-1, 4, 1}, false),
		Entry("negative block bits", Geometry{4, -1, 1}, false),
		Entry("no lines", Geometry{4, 4, 0}, false),
		Entry("negative lines", Geometry{4, 4, -3}, false),
		Entry("too many address bits", Geometry{20, 45, 1}, false),
		Entry("too many sets", Geometry{31, 0, 1}, false),
	)

	It("should derive sizes", func() {
		g := Geometry{SetBits: 4, BlockBits: 6, LinesPerSet: 8}

		Expect(g.NumSets()).To(Equal(16))
		Expect(g.BlockSize()).To(Equal(uint64(64)))
		Expect(g.TotalSize()).To(Equal(uint64(8192)))
		Expect(g.String()).To(Equal("s=4 E=8 b=6"))
	})
})

var _ = Describe("Outcome", func() {
	It("should classify outcomes", func() {
		Expect(Hit.IsHit()).To(BeTrue())
		Expect(Hit.IsMiss()).To(BeFalse())
		Expect(MissClean.IsMiss()).To(BeTrue())
		Expect(MissClean.IsEviction()).To(BeFalse())
		Expect(MissEviction.IsMiss()).To(BeTrue())
		Expect(MissEviction.IsEviction()).To(BeTrue())
	})

	It("should label outcomes", func() {
		Expect(Hit.Labels()).To(Equal([]string{"hit"}))
		Expect(MissClean.Labels()).To(Equal([]string{"miss"}))
		Expect(MissEviction.Labels()).To(Equal([]string{"miss", "eviction"}))
		Expect(MissEviction.String()).To(Equal("miss eviction"))
	})
})
