package trace

import (
	"fmt"
	"sync"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/stats"
	"github.com/sirupsen/logrus"
)

// An Accessor is a cache that references can be replayed against.
type Accessor interface {
	Access(addr uint64) cache.Outcome
}

// A ProgressReporter is told how many bytes of the trace have been consumed.
type ProgressReporter interface {
	IncrementFinished(amount uint64)
}

// A Processor replays references against a cache and counts the outcomes.
type Processor struct {
	cache      Accessor
	aggregator *stats.Aggregator
	printer    *Printer
	lock       sync.Locker
	progress   ProgressReporter
	logger     logrus.FieldLogger
}

// NewProcessor creates a Processor.
func NewProcessor(c Accessor, aggregator *stats.Aggregator) *Processor {
	return &Processor{
		cache:      c,
		aggregator: aggregator,
		logger:     logrus.StandardLogger(),
	}
}

// WithPrinter makes the processor render every reference.
func (p *Processor) WithPrinter(printer *Printer) *Processor {
	p.printer = printer
	return p
}

// WithLocker makes the processor hold the lock while it processes a
// reference.
func (p *Processor) WithLocker(lock sync.Locker) *Processor {
	p.lock = lock
	return p
}

// WithProgress sets where trace progress is reported.
func (p *Processor) WithProgress(progress ProgressReporter) *Processor {
	p.progress = progress
	return p
}

// WithLogger sets the logger.
func (p *Processor) WithLogger(logger logrus.FieldLogger) *Processor {
	p.logger = logger
	return p
}

// Process replays a single reference. Instruction fetches do not reach the
// cache, loads and stores access it once, and modifies access it twice, a
// read followed by a write.
func (p *Processor) Process(ref Reference) []cache.Outcome {
	if p.lock != nil {
		p.lock.Lock()
		defer p.lock.Unlock()
	}

	n := ref.Op.NumAccesses()
	outcomes := make([]cache.Outcome, 0, n)

	for i := 0; i < n; i++ {
		o := p.cache.Access(ref.Address)
		p.aggregator.Record(o)
		outcomes = append(outcomes, o)
	}

	return outcomes
}

// Run replays every reference of the trace.
func (p *Processor) Run(r *Reader) error {
	var reported uint64

	for {
		ref, ok := r.Next()
		if !ok {
			break
		}

		outcomes := p.Process(ref)

		if p.printer != nil && ref.Op != Instruction {
			err := p.printer.Print(ref, outcomes)
			if err != nil {
				return fmt.Errorf("printing reference: %w", err)
			}
		}

		if p.progress != nil {
			p.progress.IncrementFinished(r.BytesRead() - reported)
			reported = r.BytesRead()
		}
	}

	if p.progress != nil && r.BytesRead() > reported {
		p.progress.IncrementFinished(r.BytesRead() - reported)
	}

	if err := r.Err(); err != nil {
		return fmt.Errorf("reading trace: %w", err)
	}

	if r.Skipped() > 0 {
		p.logger.Warnf("skipped %d malformed trace lines", r.Skipped())
	}

	return nil
}
