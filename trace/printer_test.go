package trace

import (
	"bytes"

	"github.com/sarchlab/csim/cache"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Printer", func() {
	var (
		buf     *bytes.Buffer
		printer *Printer
	)

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		printer = NewPrinter(buf)
	})

	It("should print a load", func() {
		err := printer.Print(
			Reference{Op: Load, Address: 0x10, Size: 1},
			[]cache.Outcome{cache.MissClean})

		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(Equal("L 10,1 miss\n"))
	})

	It("should print both outcomes of a modify", func() {
		err := printer.Print(
			Reference{Op: Modify, Address: 0x20, Size: 1},
			[]cache.Outcome{cache.MissEviction, cache.Hit})

		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(Equal("M 20,1 miss eviction hit\n"))
	})

	It("should print a reference without outcomes", func() {
		err := printer.Print(Reference{Op: Instruction, Address: 0x8, Size: 4}, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(Equal("I 8,4\n"))
	})

	It("should colour labels when asked", func() {
		printer.WithColor(true)

		err := printer.Print(
			Reference{Op: Store, Address: 0x18, Size: 1},
			[]cache.Outcome{cache.Hit})

		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(HavePrefix("S 18,1 \x1b["))
		Expect(buf.String()).To(ContainSubstring("hit"))
	})
})
