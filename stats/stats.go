// Package stats aggregates the outcomes of cache accesses into hit, miss and
// eviction counts.
package stats

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/csim/cache"
)

// Statistics are the counters reported at the end of a run. Every eviction is
// also a miss.
type Statistics struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Accesses returns the number of accesses counted.
func (s Statistics) Accesses() uint64 {
	return s.Hits + s.Misses
}

// HitRate returns the fraction of accesses that hit, or 0 if there were no
// accesses.
func (s Statistics) HitRate() float64 {
	if s.Accesses() == 0 {
		return 0
	}

	return float64(s.Hits) / float64(s.Accesses())
}

// An Aggregator counts outcomes.
type Aggregator struct {
	stats Statistics
}

// NewAggregator creates an Aggregator with all counters at zero.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record counts one outcome.
func (a *Aggregator) Record(o cache.Outcome) {
	switch o {
	case cache.Hit:
		a.stats.Hits++
	case cache.MissClean:
		a.stats.Misses++
	case cache.MissEviction:
		a.stats.Misses++
		a.stats.Evictions++
	default:
		panic(fmt.Sprintf("unknown outcome %d", o))
	}
}

// Statistics returns the counters so far.
func (a *Aggregator) Statistics() Statistics {
	return a.stats
}

// Reset sets all counters back to zero.
func (a *Aggregator) Reset() {
	a.stats = Statistics{}
}

// PrintSummary writes the final report line.
func PrintSummary(w io.Writer, s Statistics) error {
	_, err := fmt.Fprintf(w, "hits:%d misses:%d evictions:%d\n",
		s.Hits, s.Misses, s.Evictions)

	return err
}

// WriteResults writes the counters into a results file that graders and
// scripts read back, replacing any previous content.
func WriteResults(path string, s Statistics) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating results file: %w", err)
	}

	_, err = fmt.Fprintf(f, "%d %d %d\n", s.Hits, s.Misses, s.Evictions)
	if err != nil {
		f.Close()
		return fmt.Errorf("writing results file: %w", err)
	}

	return f.Close()
}
