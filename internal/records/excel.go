package records

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

type excelSource struct {
	path   string
	header []string
	rows   [][]string
}

// openExcelSource reads the named sheet (or the first sheet) of an .xlsx workbook.
// The first row is the header.
func openExcelSource(path, sheet string) (*excelSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("open Excel: workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	src := &excelSource{path: path}
	if len(rows) > 0 {
		src.header = rows[0]
		src.rows = rows[1:]
	}
	return src, nil
}

func (s *excelSource) Path() string      { return s.path }
func (s *excelSource) Columns() []string { return append([]string(nil), s.header...) }
func (s *excelSource) Close() error      { return nil }

func (s *excelSource) Rows(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.rows, nil
}
