package records

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hyperjump/medfinder/internal/models"
	"github.com/hyperjump/medfinder/pkg/utils"
	"go.uber.org/zap"
)

// Store is the immutable, loaded-once record collection. It is safe for
// concurrent reads. Records returned by Store are shared and must not be modified.
type Store struct {
	records  []*models.Record
	byIndex  map[int]*models.Record
	source   string
	loaded   bool
	loadedAt time.Time
	stale    atomic.Bool
}

// NewStore builds a loaded store from records in store order. NameKey is derived
// for records that lack it. Duplicate indices keep the first record.
func NewStore(recs []*models.Record) *Store {
	s := &Store{
		records:  make([]*models.Record, 0, len(recs)),
		byIndex:  make(map[int]*models.Record, len(recs)),
		loaded:   true,
		loadedAt: time.Now(),
	}
	for _, r := range recs {
		if _, dup := s.byIndex[r.Index]; dup {
			continue
		}
		if r.NameKey == "" {
			r.NameKey = utils.NormalizeKey(r.Name)
		}
		s.records = append(s.records, r)
		s.byIndex[r.Index] = r
	}
	return s
}

// emptyStore is the valid-but-empty fallback after a failed load.
func emptyStore(source string) *Store {
	return &Store{byIndex: map[int]*models.Record{}, source: source}
}

// LoadPath opens the source at path and loads it. On failure it returns an
// empty store together with an error wrapping models.ErrDataSourceMissing.
func LoadPath(ctx context.Context, path string, opts SourceOptions, logger *zap.Logger) (*Store, error) {
	src, err := OpenSource(path, opts)
	if err != nil {
		utils.OrNop(logger).Error("record source unavailable", zap.String("source", path), zap.Error(err))
		return emptyStore(path), fmt.Errorf("%w: %s: %v", models.ErrDataSourceMissing, path, err)
	}
	defer src.Close()
	return Load(ctx, src, logger)
}

// Load reads every row of src into a store. Each data row's position becomes
// the record index; rows without a name are skipped. A source with no usable
// rows yields a valid empty store. A source without a name column, or one that
// cannot be read, yields an empty store and an error wrapping
// models.ErrDataSourceMissing.
func Load(ctx context.Context, src Source, logger *zap.Logger) (*Store, error) {
	logger = utils.OrNop(logger)
	cols := newColumnIndex(src.Columns())
	if len(src.Columns()) > 0 && !cols.has(ColName) {
		logger.Error("record source has no name column", zap.String("source", src.Path()))
		return emptyStore(src.Path()), fmt.Errorf("%w: %s: no %q column", models.ErrDataSourceMissing, src.Path(), ColName)
	}
	rows, err := src.Rows(ctx)
	if err != nil {
		logger.Error("record source read failed", zap.String("source", src.Path()), zap.Error(err))
		return emptyStore(src.Path()), fmt.Errorf("%w: %s: %v", models.ErrDataSourceMissing, src.Path(), err)
	}

	recs := make([]*models.Record, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		rec, ok := parseRow(cols, row, i)
		if !ok {
			skipped++
			continue
		}
		recs = append(recs, rec)
	}
	for _, col := range []string{ColSpeciality, ColPrice, ColRating} {
		if !cols.has(col) {
			logger.Warn("record source column missing", zap.String("source", src.Path()), zap.String("column", col))
		}
	}

	s := NewStore(recs)
	s.source = src.Path()
	logger.Info("records loaded",
		zap.String("source", src.Path()),
		zap.Int("records", len(recs)),
		zap.Int("skipped", skipped),
	)
	return s, nil
}

// Get returns the record with the given index, or models.ErrNotFound.
func (s *Store) Get(index int) (*models.Record, error) {
	r, ok := s.byIndex[index]
	if !ok {
		return nil, fmt.Errorf("%w: record %d", models.ErrNotFound, index)
	}
	return r, nil
}

// All returns every record in store order. The slice is a copy; the records are shared.
func (s *Store) All() []*models.Record {
	return append([]*models.Record(nil), s.records...)
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// IsEmpty reports whether the store holds no records.
func (s *Store) IsEmpty() bool {
	return len(s.records) == 0
}

// Loaded reports whether the source was read successfully. A store that failed
// to load is empty and must not serve queries.
func (s *Store) Loaded() bool {
	return s.loaded
}

// LoadedAt returns when the store was built.
func (s *Store) LoadedAt() time.Time {
	return s.loadedAt
}

// Source returns the source path the store was loaded from.
func (s *Store) Source() string {
	return s.source
}

// MarkStale records that the source changed on disk after loading.
// The store itself is never reloaded.
func (s *Store) MarkStale() {
	s.stale.Store(true)
}

// Stale reports whether the source changed since loading.
func (s *Store) Stale() bool {
	return s.stale.Load()
}
