package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sarchlab/csim/cache"
)

// A Printer renders one line per reference, naming the reference and the
// outcome of every access it caused.
type Printer struct {
	w io.Writer

	hit      *color.Color
	miss     *color.Color
	eviction *color.Color
}

// NewPrinter creates a Printer that writes plain text.
func NewPrinter(w io.Writer) *Printer {
	p := &Printer{
		w:        w,
		hit:      color.New(color.FgGreen),
		miss:     color.New(color.FgRed),
		eviction: color.New(color.FgYellow, color.Bold),
	}

	p.WithColor(false)

	return p
}

// WithColor turns coloured labels on or off.
func (p *Printer) WithColor(enabled bool) *Printer {
	for _, c := range []*color.Color{p.hit, p.miss, p.eviction} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return p
}

// Print writes the line for a reference, e.g. "M 20,1 miss eviction hit".
func (p *Printer) Print(ref Reference, outcomes []cache.Outcome) error {
	labels := make([]string, 0, 2*len(outcomes))

	for _, o := range outcomes {
		for _, l := range o.Labels() {
			labels = append(labels, p.colorize(l))
		}
	}

	line := ref.String()
	if len(labels) > 0 {
		line += " " + strings.Join(labels, " ")
	}

	_, err := fmt.Fprintln(p.w, line)

	return err
}

func (p *Printer) colorize(label string) string {
	switch label {
	case "hit":
		return p.hit.Sprint(label)
	case "miss":
		return p.miss.Sprint(label)
	case "eviction":
		return p.eviction.Sprint(label)
	default:
		return label
	}
}
