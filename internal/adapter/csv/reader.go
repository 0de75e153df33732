package csv

import (
	"bufio"
	"bytes"
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/roster-geo-etl/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("csv has no header row")

// Reader yields roster rows from a CSV stream whose first row names the
// columns. It implements pipeline.RecordSource.
//
// Rows may be shorter or longer than the header: missing columns are absent
// from the record and extra cells are dropped. Stray quotes are kept as text.
// A row the CSV decoder still rejects becomes an empty record so it is
// counted without aborting the run.
type Reader struct {
	r      *stdcsv.Reader
	header []string
	closer io.Closer
	logger *slog.Logger
}

// NewReader reads the header row from r.
func NewReader(r io.Reader, logger *slog.Logger) (*Reader, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := stdcsv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}
	return &Reader{r: cr, header: names, logger: logger}, nil
}

// Open opens a CSV file. Close releases it.
func Open(path string, logger *slog.Logger) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f, logger)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// Header returns the column names.
func (r *Reader) Header() []string {
	out := make([]string, len(r.header))
	copy(out, r.header)
	return out
}

// HasColumn reports whether the header names col.
func (r *Reader) HasColumn(col string) bool {
	for _, h := range r.header {
		if h == col {
			return true
		}
	}
	return false
}

// Next returns the next row, or io.EOF after the last one.
func (r *Reader) Next(ctx context.Context) (domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawRecord{}, err
	}

	row, err := r.r.Read()
	if err != nil {
		var perr *stdcsv.ParseError
		if errors.As(err, &perr) {
			r.logger.Warn("malformed csv row", "line", perr.StartLine, "error", perr.Err)
			return domain.RawRecord{Line: perr.StartLine, Fields: map[string]string{}}, nil
		}
		return domain.RawRecord{}, err
	}

	line, _ := r.r.FieldPos(0)
	fields := make(map[string]string, len(r.header))
	for i, cell := range row {
		if i >= len(r.header) {
			break
		}
		fields[r.header[i]] = cell
	}
	return domain.RawRecord{Line: line, Fields: fields}, nil
}

// Close releases the underlying file when the reader was created by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
