// Package storage provides a SQLite-backed tabular record source and importer.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource reads records from one table of a SQLite database.
// Every column is exposed as text; NULL becomes the empty string.
type SQLiteSource struct {
	db      *sql.DB
	path    string
	table   string
	columns []string
}

// OpenSQLiteSource opens dbPath read-only and reads the column list of table.
// Returns an error if the file does not exist, the table name is not a plain
// identifier, or the table is missing.
func OpenSQLiteSource(dbPath, table string) (*SQLiteSource, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	rows, err := db.Query(`SELECT name FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to read table info: %w", err)
	}
	defer rows.Close()
	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = db.Close()
			return nil, err
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if len(columns) == 0 {
		_ = db.Close()
		return nil, fmt.Errorf("table not found: %s", table)
	}

	return &SQLiteSource{db: db, path: dbPath, table: table, columns: columns}, nil
}

// Path returns the database file path.
func (s *SQLiteSource) Path() string {
	return s.path
}

// Columns returns the table's column names in declaration order.
func (s *SQLiteSource) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Rows returns every row in rowid order as text cells aligned with Columns.
func (s *SQLiteSource) Rows(ctx context.Context) ([][]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %s ORDER BY rowid`, quoteIdent(s.table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		values := make([]any, len(s.columns))
		ptrs := make([]any, len(s.columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = cellText(v)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// quoteIdent quotes an identifier for SQL, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// ImportRows creates (or replaces) table in the database at dbPath with one TEXT
// column per entry of columns and inserts rows in order. Parent directories are
// created if they do not exist. Rows shorter than columns are padded with NULL.
func ImportRows(ctx context.Context, dbPath, table string, columns []string, rows [][]string) error {
	if !identPattern.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	if len(columns) == 0 {
		return fmt.Errorf("no columns to import")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c) + " TEXT"
		placeholders[i] = "?"
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(table))); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %s (%s)`, quoteIdent(table), strings.Join(quoted, ", "))); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s VALUES (%s)`, quoteIdent(table), strings.Join(placeholders, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for n, row := range rows {
		args := make([]any, len(columns))
		for i := range columns {
			if i < len(row) && row[i] != "" {
				args[i] = row[i]
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", n, err)
		}
	}
	return tx.Commit()
}
