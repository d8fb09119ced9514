// Package habits reads habit-tracker exports (Date, Habit, Value, Memo) and
// yields them as series rows.
package habits

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/sadopc/habitchart/internal/series"
)

var (
	ErrNoHeader      = errors.New("export has no header row")
	ErrMissingColumn = errors.New("export is missing a required column")
)

const (
	colDate  = "date"
	colHabit = "habit"
	colValue = "value"
	colMemo  = "memo"
)

const sniffBytes = 4096

var utf8BOM = []byte("\ufeff")

// Reader produces rows from an export. Call Err after ranging over Rows.
type Reader struct {
	src    *bufio.Reader
	csv    *csv.Reader
	cols   map[string]int
	err    error
	opened bool
}

func NewReader(r io.Reader) *Reader {
	return &Reader{src: bufio.NewReaderSize(r, sniffBytes)}
}

// Err returns the first error hit while reading, if any.
func (r *Reader) Err() error {
	return r.err
}

// Columns returns the header names that were mapped, in canonical form.
func (r *Reader) Columns() []string {
	var out []string
	for _, c := range []string{colDate, colHabit, colValue, colMemo} {
		if _, ok := r.cols[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Rows yields one row per data record. Iteration stops at the first error.
func (r *Reader) Rows() iter.Seq[series.Row] {
	return func(yield func(series.Row) bool) {
		if !r.opened {
			r.opened = true
			if err := r.readHeader(); err != nil {
				r.err = err
				return
			}
		}
		if r.csv == nil {
			return
		}
		for {
			rec, err := r.csv.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				r.err = fmt.Errorf("read record: %w", err)
				return
			}
			if isBlank(rec) {
				continue
			}
			if !yield(r.row(rec)) {
				return
			}
		}
	}
}

func (r *Reader) readHeader() error {
	peek, err := r.src.Peek(sniffBytes)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return fmt.Errorf("read header: %w", err)
	}
	if bytes.HasPrefix(peek, utf8BOM) {
		// A quoted first field is only recognised without the BOM in front.
		if _, err := r.src.Discard(len(utf8BOM)); err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		peek = peek[len(utf8BOM):]
	}
	if len(bytes.TrimSpace(peek)) == 0 {
		return ErrNoHeader
	}

	cr := csv.NewReader(r.src)
	cr.Comma = sniffDelimiter(peek)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return ErrNoHeader
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	for _, required := range []string{colDate, colHabit} {
		if _, ok := cols[required]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingColumn, required)
		}
	}

	r.cols = cols
	r.csv = cr
	return nil
}

func (r *Reader) row(rec []string) series.Row {
	return series.Row{
		Date:  r.field(rec, colDate),
		Habit: r.field(rec, colHabit),
		Value: r.field(rec, colValue),
		Memo:  r.field(rec, colMemo),
	}
}

func (r *Reader) field(rec []string, col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// sniffDelimiter picks the most frequent of ',', ';' and TAB on the first line.
func sniffDelimiter(peek []byte) rune {
	line := peek
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		line = peek[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
