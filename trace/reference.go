// Package trace reads memory reference traces and replays them against a
// cache.
package trace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Operation is the kind of a memory reference.
type Operation byte

// The operations that appear in a trace.
const (
	Instruction Operation = 'I'
	Load        Operation = 'L'
	Store       Operation = 'S'
	Modify      Operation = 'M'
)

// NumAccesses returns how many cache accesses the operation causes.
func (op Operation) NumAccesses() int {
	switch op {
	case Load, Store:
		return 1
	case Modify:
		return 2
	default:
		return 0
	}
}

func (op Operation) String() string {
	return string(op)
}

// ErrMalformedReference is returned for lines that are not a reference.
var ErrMalformedReference = errors.New("malformed reference")

// ErrBlankLine is returned for lines that only hold whitespace.
var ErrBlankLine = errors.New("blank line")

// A Reference is one line of a trace.
type Reference struct {
	Op      Operation
	Address uint64
	Size    uint64
}

func (r Reference) String() string {
	return fmt.Sprintf("%s %x,%d", r.Op, r.Address, r.Size)
}

// ParseReference parses a line in the form "<op> <hex-address>,<size>".
// Leading whitespace is ignored.
func ParseReference(line string) (Reference, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Reference{}, ErrBlankLine
	}

	op := Operation(line[0])
	switch op {
	case Instruction, Load, Store, Modify:
	default:
		return Reference{}, fmt.Errorf("%w: unknown operation %q",
			ErrMalformedReference, line[0])
	}

	rest := line[1:]
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return Reference{}, fmt.Errorf("%w: missing space after operation",
			ErrMalformedReference)
	}

	addrStr, sizeStr, found := strings.Cut(strings.TrimSpace(rest), ",")
	if !found {
		return Reference{}, fmt.Errorf("%w: missing size in %q",
			ErrMalformedReference, line)
	}

	addrStr = strings.TrimSpace(addrStr)
	addrStr = strings.TrimPrefix(strings.TrimPrefix(addrStr, "0x"), "0X")

	addr, err := strconv.ParseUint(addrStr, 16, 64)
	if err != nil {
		return Reference{}, fmt.Errorf("%w: bad address in %q: %v",
			ErrMalformedReference, line, err)
	}

	size, err := strconv.ParseUint(strings.TrimSpace(sizeStr), 10, 64)
	if err != nil {
		return Reference{}, fmt.Errorf("%w: bad size in %q: %v",
			ErrMalformedReference, line, err)
	}

	return Reference{Op: op, Address: addr, Size: size}, nil
}
