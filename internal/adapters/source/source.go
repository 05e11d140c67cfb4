// Package source reads delimited text tables into raw, untyped tables.
package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/fleetpulse/internal/domain/model"
	"github.com/okian/fleetpulse/pkg/logger"
	"github.com/okian/fleetpulse/pkg/metrics"
)

// cancelCheckEvery is how many records are read between context checks.
const cancelCheckEvery = 4096

const utf8BOM = "\ufeff"

// Reader reads delimited tables with a header row.
type Reader struct {
	delimiter rune
	comment   rune
	required  []string
	logger    logger.Logger
}

// NewReader creates a Reader with configuration options.
func NewReader(opts ...Option) *Reader {
	r := &Reader{delimiter: ','}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read parses r into a table called name. Every record must have as many
// fields as the header; blank lines are skipped.
func (r *Reader) Read(ctx context.Context, name string, in io.Reader) (model.RawTable, error) {
	cr := csv.NewReader(bufio.NewReader(in))
	cr.Comma = r.delimiter
	cr.Comment = r.comment
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return model.RawTable{}, fmt.Errorf("%s: %w", name, ErrEmptyTable)
	}
	if err != nil {
		return model.RawTable{}, fmt.Errorf("%s: read header: %w", name, err)
	}
	header = normalizeHeader(header)
	if err := checkHeader(name, header, r.required); err != nil {
		return model.RawTable{}, err
	}

	var rows [][]string
	for {
		if len(rows)%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return model.RawTable{}, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.RawTable{}, fmt.Errorf("%s: %w", name, err)
		}
		rows = append(rows, rec)
	}

	metrics.RecordRowsLoaded(name, len(rows))
	if r.logger != nil {
		r.logger.Debug(ctx, "table loaded",
			logger.String("table", name),
			logger.Int("rows", len(rows)),
			logger.Int("columns", len(header)),
		)
	}
	return model.NewRawTable(name, header, rows), nil
}

// ReadFile opens path and reads it; the table is named after the file.
func (r *Reader) ReadFile(ctx context.Context, path string) (model.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.RawTable{}, fmt.Errorf("open table: %w", err)
	}
	defer func() { _ = f.Close() }()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return r.Read(ctx, name, f)
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func checkHeader(name string, header, required []string) error {
	seen := make(map[string]struct{}, len(header))
	for _, h := range header {
		if _, dup := seen[h]; dup && h != "" {
			return fmt.Errorf("%s: %w: %q", name, ErrDuplicateColumn, h)
		}
		seen[h] = struct{}{}
	}
	for _, col := range required {
		if _, ok := seen[col]; !ok {
			return fmt.Errorf("%s: %w: %q", name, ErrMissingColumn, col)
		}
	}
	return nil
}
