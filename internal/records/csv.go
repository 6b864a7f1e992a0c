package records

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type csvSource struct {
	path   string
	header []string
	rows   [][]string
}

// openCSVSource reads a comma-separated file with a header row. A UTF-8 BOM is
// stripped and rows may have differing field counts.
func openCSVSource(path string) (*csvSource, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	src := &csvSource{path: path}
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return src, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	src.header = header
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		src.rows = append(src.rows, row)
	}
	return src, nil
}

func (s *csvSource) Path() string      { return s.path }
func (s *csvSource) Columns() []string { return append([]string(nil), s.header...) }
func (s *csvSource) Close() error      { return nil }

func (s *csvSource) Rows(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.rows, nil
}
