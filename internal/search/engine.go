// Package search provides name and specialty+location search over the record store.
package search

import (
	"github.com/hyperjump/medfinder/internal/models"
	"github.com/hyperjump/medfinder/internal/ranking"
	"github.com/hyperjump/medfinder/internal/records"
	"github.com/hyperjump/medfinder/pkg/utils"
	"go.uber.org/zap"
)

// NameResult is the outcome of a name search.
type NameResult struct {
	Mode    models.MatchMode
	Records []*models.Record
}

// SpecialityResult is the outcome of a specialty search.
type SpecialityResult struct {
	Records []*models.Record
	// Ranked is true when a location filter matched and the records were ranked.
	Ranked bool
	// LocationApplied is true when a non-blank location narrowed the result.
	LocationApplied bool
	EmptyStore      bool
}

// ParsedQuery is free text classified by ParseCombinedQuery.
type ParsedQuery struct {
	// Name is set for a name search.
	Name string
	// Speciality is set for a specialty search.
	Speciality *models.SpecialityQuery
}

// IsSpeciality reports whether the text was a specialty query.
func (p *ParsedQuery) IsSpeciality() bool {
	return p.Speciality != nil
}

// Engine runs searches over a store. Every search is a full scan of the store.
type Engine struct {
	store  *records.Store
	ranker *ranking.Ranker
	logger *zap.Logger
}

// NewEngine creates a search engine over store.
func NewEngine(store *records.Store, logger *zap.Logger) *Engine {
	return &Engine{
		store:  store,
		ranker: ranking.NewRanker(),
		logger: utils.OrNop(logger),
	}
}

// Store returns the underlying record store.
func (e *Engine) Store() *records.Store {
	return e.store
}

// SearchByName looks up records by name. All records whose normalized name
// equals the normalized query are returned in store order with mode exact.
// Otherwise records whose name contains the query are returned ranked with
// mode partial.
func (e *Engine) SearchByName(query string) (*NameResult, error) {
	q := models.NameQuery{Query: query}
	if err := ProcessNameQuery(&q); err != nil {
		return nil, err
	}
	if e.store.IsEmpty() {
		return &NameResult{Mode: models.MatchEmptyStore}, nil
	}
	key := utils.NormalizeKey(q.Query)

	var exact, partial []*models.Record
	for _, r := range e.store.All() {
		switch {
		case r.NameKey == key:
			exact = append(exact, r)
		case utils.ContainsKey(r.NameKey, key):
			partial = append(partial, r)
		}
	}

	var res *NameResult
	switch {
	case len(exact) > 0:
		res = &NameResult{Mode: models.MatchExact, Records: exact}
	case len(partial) > 0:
		res = &NameResult{Mode: models.MatchPartial, Records: e.ranker.Rank(partial)}
	default:
		res = &NameResult{Mode: models.MatchNotFound}
	}
	e.logger.Debug("name search",
		zap.String("query", key),
		zap.String("mode", string(res.Mode)),
		zap.Int("results", len(res.Records)),
	)
	return res, nil
}

// SearchBySpeciality returns records with a specialty label containing
// speciality. Without a location the matches come back in store order. With a
// location they are narrowed to records where any transit-location slot
// contains it, and ranked.
func (e *Engine) SearchBySpeciality(speciality, location string) (*SpecialityResult, error) {
	q := models.SpecialityQuery{Speciality: speciality, Location: location}
	if err := ProcessSpecialityQuery(&q); err != nil {
		return nil, err
	}
	if e.store.IsEmpty() {
		return &SpecialityResult{EmptyStore: true}, nil
	}
	specKey := utils.NormalizeKey(q.Speciality)

	var matches []*models.Record
	for _, r := range e.store.All() {
		if matchesSpeciality(r, specKey) {
			matches = append(matches, r)
		}
	}

	res := &SpecialityResult{Records: matches}
	if q.Location != "" {
		locKey := utils.NormalizeKey(q.Location)
		var narrowed []*models.Record
		for _, r := range matches {
			if matchesLocation(r, locKey) {
				narrowed = append(narrowed, r)
			}
		}
		res.LocationApplied = true
		res.Records = narrowed
		if len(narrowed) > 0 {
			res.Records = e.ranker.Rank(narrowed)
			res.Ranked = true
		}
	}
	e.logger.Debug("speciality search",
		zap.String("speciality", specKey),
		zap.String("location", q.Location),
		zap.Int("results", len(res.Records)),
	)
	return res, nil
}

// All returns every record in store order.
func (e *Engine) All() []*models.Record {
	return e.store.All()
}

// ParseCombinedQuery classifies free text: "speciality, location" when it
// contains a comma, a name otherwise. The text is split at the first comma.
func (e *Engine) ParseCombinedQuery(text string) (*ParsedQuery, error) {
	return ParseCombinedQuery(text)
}

func matchesSpeciality(r *models.Record, key string) bool {
	for _, s := range r.Specialities {
		if utils.ContainsKey(s, key) {
			return true
		}
	}
	return false
}

func matchesLocation(r *models.Record, key string) bool {
	for _, loc := range r.Locations {
		if utils.ContainsKey(loc, key) {
			return true
		}
	}
	return false
}
