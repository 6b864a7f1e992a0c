// Package records loads the immutable record store from tabular sources.
package records

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/hyperjump/medfinder/internal/storage"
)

// Source is a tabular record source exposing named columns.
type Source interface {
	// Path identifies the source for logs and status output.
	Path() string
	// Columns returns the header row.
	Columns() []string
	// Rows returns data rows; cells are aligned with Columns and may be ragged.
	Rows(ctx context.Context) ([][]string, error)
	Close() error
}

// SourceOptions selects the part of a container file holding the records.
type SourceOptions struct {
	// Sheet is the worksheet for .xlsx sources (default: first sheet).
	Sheet string
	// Table is the table for SQLite sources.
	Table string
}

// OpenSource opens the record source at path, choosing a reader by extension:
// .xlsx uses excelize, .db/.sqlite/.sqlite3 read a SQLite table, anything else is CSV.
func OpenSource(path string, opts SourceOptions) (Source, error) {
	var (
		src Source
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		src, err = openExcelSource(path, opts.Sheet)
	case ".db", ".sqlite", ".sqlite3":
		table := opts.Table
		if table == "" {
			table = "doctors"
		}
		src, err = storage.OpenSQLiteSource(path, table)
	default:
		src, err = openCSVSource(path)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}
