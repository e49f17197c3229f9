package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

const maxLineLength = 1 << 16

// A Reader reads references from a trace, one per line. Lines that cannot be
// parsed, including lines longer than 64 KiB, are logged and skipped.
type Reader struct {
	reader *bufio.Reader
	logger logrus.FieldLogger
	err    error
	done   bool

	lineNumber int
	bytesRead  uint64
	skipped    int
}

// NewReader creates a Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		reader: bufio.NewReaderSize(r, 4096),
		logger: logrus.StandardLogger(),
	}
}

// WithLogger sets the logger that skipped lines are reported to.
func (r *Reader) WithLogger(logger logrus.FieldLogger) *Reader {
	r.logger = logger
	return r
}

// Next returns the next reference. It returns false at the end of the input
// or on a read error, which Err reports.
func (r *Reader) Next() (Reference, bool) {
	for !r.done {
		line, consumed, tooLong := r.readLine()
		if consumed == 0 {
			break
		}

		r.lineNumber++

		ref, err := r.parse(line, tooLong)
		if errors.Is(err, ErrBlankLine) {
			continue
		}

		if err != nil {
			r.skipped++
			r.logger.WithFields(logrus.Fields{
				"line": r.lineNumber,
			}).Warnf("skipping trace line: %v", err)

			continue
		}

		return ref, true
	}

	return Reference{}, false
}

func (r *Reader) parse(line string, tooLong bool) (Reference, error) {
	if tooLong {
		return Reference{}, fmt.Errorf("%w: line longer than %d bytes",
			ErrMalformedReference, maxLineLength)
	}

	return ParseReference(line)
}

// readLine consumes one line including its newline. Content past
// maxLineLength is discarded and reported through tooLong.
func (r *Reader) readLine() (line string, consumed int, tooLong bool) {
	var buf []byte

	for {
		chunk, err := r.reader.ReadSlice('\n')
		consumed += len(chunk)
		r.bytesRead += uint64(len(chunk))

		if !tooLong {
			if len(buf)+len(chunk) > maxLineLength+1 {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		if err != nil {
			r.done = true
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
		}

		return strings.TrimRight(string(buf), "\r\n"), consumed, tooLong
	}
}

// Err returns the first read error.
func (r *Reader) Err() error {
	return r.err
}

// Skipped returns the number of malformed lines skipped so far.
func (r *Reader) Skipped() int {
	return r.skipped
}

// BytesRead returns the number of input bytes consumed so far.
func (r *Reader) BytesRead() uint64 {
	return r.bytesRead
}
