package trace

import (
	"bytes"
	"strings"
	"sync"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/stats"
	"go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingLocker struct {
	sync.Mutex
	locks int
}

func (l *countingLocker) Lock() {
	l.Mutex.Lock()
	l.locks++
}

var _ = Describe("Processor", func() {
	var (
		mockCtrl   *gomock.Controller
		accessor   *MockAccessor
		aggregator *stats.Aggregator
		p          *Processor
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		accessor = NewMockAccessor(mockCtrl)
		aggregator = stats.NewAggregator()
		p = NewProcessor(accessor, aggregator)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should not access the cache for instruction fetches", func() {
		outcomes := p.Process(Reference{Op: Instruction, Address: 0x10})

		Expect(outcomes).To(BeEmpty())
		Expect(aggregator.Statistics()).To(BeZero())
	})

	It("should access the cache once for a load", func() {
		accessor.EXPECT().Access(uint64(0x10)).Return(cache.MissClean)

		outcomes := p.Process(Reference{Op: Load, Address: 0x10})

		Expect(outcomes).To(Equal([]cache.Outcome{cache.MissClean}))
	})

	It("should access the cache once for a store", func() {
		accessor.EXPECT().Access(uint64(0x18)).Return(cache.Hit)

		outcomes := p.Process(Reference{Op: Store, Address: 0x18})

		Expect(outcomes).To(Equal([]cache.Outcome{cache.Hit}))
		Expect(aggregator.Statistics().Hits).To(Equal(uint64(1)))
	})

	It("should read then write for a modify", func() {
		gomock.InOrder(
			accessor.EXPECT().Access(uint64(0x20)).Return(cache.MissEviction),
			accessor.EXPECT().Access(uint64(0x20)).Return(cache.Hit),
		)

		outcomes := p.Process(Reference{Op: Modify, Address: 0x20})

		Expect(outcomes).To(Equal([]cache.Outcome{cache.MissEviction, cache.Hit}))
		Expect(aggregator.Statistics()).To(Equal(stats.Statistics{
			Hits: 1, Misses: 1, Evictions: 1,
		}))
	})

	It("should hold the lock while processing", func() {
		locker := &countingLocker{}
		p.WithLocker(locker)
		accessor.EXPECT().Access(gomock.Any()).Return(cache.Hit).Times(2)

		p.Process(Reference{Op: Modify, Address: 0x20})

		Expect(locker.locks).To(Equal(1))
	})

	It("should report progress in bytes", func() {
		progress := NewMockProgressReporter(mockCtrl)
		p.WithProgress(progress)
		accessor.EXPECT().Access(gomock.Any()).Return(cache.Hit).AnyTimes()

		var total uint64
		progress.EXPECT().IncrementFinished(gomock.Any()).
			Do(func(amount uint64) { total += amount }).
			AnyTimes()

		input := " L 10,1\n S 10,1\n\n"
		Expect(p.Run(NewReader(strings.NewReader(input)))).To(Succeed())

		Expect(total).To(Equal(uint64(len(input))))
	})

	It("should return read errors", func() {
		err := p.Run(NewReader(failingReader{}))

		Expect(err).To(MatchError(ContainSubstring("disk on fire")))
	})
})

var _ = Describe("Replaying a trace", func() {
	run := func(g cache.Geometry, input string) (stats.Statistics, string) {
		c, err := cache.MakeBuilder().WithGeometry(g).Build("Cache")
		Expect(err).NotTo(HaveOccurred())

		aggregator := stats.NewAggregator()
		out := new(bytes.Buffer)
		p := NewProcessor(c, aggregator).WithPrinter(NewPrinter(out))

		Expect(p.Run(NewReader(strings.NewReader(input)))).To(Succeed())

		return aggregator.Statistics(), out.String()
	}

	It("should evict in a direct-mapped cache with two sets", func() {
		s, _ := run(cache.Geometry{SetBits: 1, BlockBits: 0, LinesPerSet: 1},
			"L 0,1\nL 4,1\nL 0,1\n")

		Expect(s).To(Equal(stats.Statistics{Hits: 0, Misses: 3, Evictions: 2}))
	})

	It("should hit in a two-way cache with one set", func() {
		s, _ := run(cache.Geometry{SetBits: 0, BlockBits: 0, LinesPerSet: 2},
			"L 0,1\nL 1,1\nL 0,1\n")

		Expect(s).To(Equal(stats.Statistics{Hits: 1, Misses: 2, Evictions: 0}))
	})

	It("should replay the cachelab yi trace", func() {
		input := strings.Join([]string{
			" L 10,1",
			" M 20,1",
			" L 22,1",
			" S 18,1",
			" L 110,1",
			" L 210,1",
			" M 12,1",
		}, "\n") + "\n"

		s, out := run(cache.Geometry{SetBits: 4, BlockBits: 4, LinesPerSet: 1},
			input)

		Expect(s).To(Equal(stats.Statistics{Hits: 4, Misses: 5, Evictions: 3}))
		Expect(out).To(Equal(strings.Join([]string{
			"L 10,1 miss",
			"M 20,1 miss hit",
			"L 22,1 hit",
			"S 18,1 hit",
			"L 110,1 miss eviction",
			"L 210,1 miss eviction",
			"M 12,1 miss eviction hit",
		}, "\n") + "\n"))
	})

	It("should never miss twice on a modify", func() {
		input := " M 0,1\n M 40,1\n M 80,1\n M 0,1\n M c0,1\n"

		_, out := run(cache.Geometry{SetBits: 1, BlockBits: 4, LinesPerSet: 2},
			input)

		for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
			Expect(line).To(MatchRegexp(`^M [0-9a-f]+,1 miss( eviction)? hit$`))
		}
	})

	It("should hit twice when modifying a resident address", func() {
		s, out := run(cache.Geometry{SetBits: 0, BlockBits: 0, LinesPerSet: 1},
			" L 0,1\n M 0,1\n")

		Expect(s).To(Equal(stats.Statistics{Hits: 2, Misses: 1}))
		Expect(out).To(Equal("L 0,1 miss\nM 0,1 hit hit\n"))
	})

	It("should keep replaying after an overlong line", func() {
		input := " L 0,1\n" + strings.Repeat("x", 70000) + "\n L 1,1\n L 0,1\n"

		s, _ := run(cache.Geometry{SetBits: 0, BlockBits: 0, LinesPerSet: 2},
			input)

		Expect(s).To(Equal(stats.Statistics{Hits: 1, Misses: 2}))
	})

	It("should skip instruction fetches and malformed lines", func() {
		s, out := run(cache.Geometry{SetBits: 0, BlockBits: 0, LinesPerSet: 1},
			"I 0,4\nnot a reference\n L 0,1\n")

		Expect(s).To(Equal(stats.Statistics{Misses: 1}))
		Expect(out).To(Equal("L 0,1 miss\n"))
	})
})
