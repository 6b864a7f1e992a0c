package search

import (
	"fmt"

	"github.com/hyperjump/medfinder/internal/market"
	"github.com/hyperjump/medfinder/internal/models"
	"github.com/hyperjump/medfinder/internal/session"
	"github.com/hyperjump/medfinder/pkg/utils"
	"go.uber.org/zap"
)

// Service runs searches on behalf of callers. Multi-record results are saved
// as the caller's session and served one page at a time.
type Service struct {
	engine   *Engine
	sessions *session.Manager
	logger   *zap.Logger
}

// NewService creates a service over engine and sessions.
func NewService(engine *Engine, sessions *session.Manager, logger *zap.Logger) *Service {
	return &Service{
		engine:   engine,
		sessions: sessions,
		logger:   utils.OrNop(logger),
	}
}

// Engine returns the underlying search engine.
func (s *Service) Engine() *Engine {
	return s.engine
}

// ready refuses queries when the store failed to load.
func (s *Service) ready() error {
	st := s.engine.Store()
	if !st.Loaded() {
		return fmt.Errorf("%w: %s", models.ErrDataSourceMissing, st.Source())
	}
	return nil
}

// Find runs free text through ParseCombinedQuery and dispatches it.
func (s *Service) Find(callerID, text string) (*models.SearchResponse, error) {
	parsed, err := ParseCombinedQuery(text)
	if err != nil {
		return nil, err
	}
	if parsed.IsSpeciality() {
		return s.BySpeciality(callerID, parsed.Speciality.Speciality, parsed.Speciality.Location)
	}
	return s.ByName(callerID, parsed.Name)
}

// ByName searches by name. Exact matches are returned in Matches and no
// session is saved. Partial matches replace the caller's session and the first
// page is returned.
func (s *Service) ByName(callerID, query string) (*models.SearchResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	res, err := s.engine.SearchByName(query)
	if err != nil {
		return nil, err
	}
	switch res.Mode {
	case models.MatchEmptyStore:
		return nil, models.ErrEmptyStore
	case models.MatchNotFound:
		return nil, fmt.Errorf("%w: no doctor named %q", models.ErrNotFound, query)
	case models.MatchExact:
		return &models.SearchResponse{CallerID: callerID, Mode: res.Mode, Matches: res.Records}, nil
	}
	resp, err := s.save(callerID, res.Records)
	if err != nil {
		return nil, err
	}
	resp.Mode = res.Mode
	resp.Ranked = true
	return resp, nil
}

// BySpeciality searches by specialty and optional location. A non-empty result
// replaces the caller's session and the first page is returned.
func (s *Service) BySpeciality(callerID, speciality, location string) (*models.SearchResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	res, err := s.engine.SearchBySpeciality(speciality, location)
	if err != nil {
		return nil, err
	}
	if res.EmptyStore {
		return nil, models.ErrEmptyStore
	}
	if len(res.Records) == 0 {
		if res.LocationApplied {
			return nil, fmt.Errorf("%w: no %q near %q", models.ErrNotFound, speciality, location)
		}
		return nil, fmt.Errorf("%w: no %q", models.ErrNotFound, speciality)
	}
	resp, err := s.save(callerID, res.Records)
	if err != nil {
		return nil, err
	}
	resp.Ranked = res.Ranked
	return resp, nil
}

// All saves the whole store, in store order, as the caller's session.
func (s *Service) All(callerID string) (*models.SearchResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	all := s.engine.All()
	if len(all) == 0 {
		return nil, models.ErrEmptyStore
	}
	return s.save(callerID, all)
}

// Page returns the requested page of the caller's saved results. Out-of-range
// pages are clamped.
func (s *Service) Page(callerID string, page int) (*models.Page, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	p, err := s.sessions.GetPage(callerID, page, 0)
	if err != nil {
		return nil, err
	}
	return s.resolve(p)
}

// Detail returns one record with its market comparison. When fromResults is
// set the record must be part of the caller's saved results. The caller's
// current page is attached whenever the caller has a session.
func (s *Service) Detail(callerID string, index int, fromResults bool) (*models.DetailResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var current *int
	if callerID != "" {
		if sess, err := s.sessions.Current(callerID); err == nil {
			if fromResults && !sess.Contains(index) {
				return nil, fmt.Errorf("%w: record %d is not in the caller's results", models.ErrNotFound, index)
			}
			page := sess.CurrentPage
			current = &page
		} else if fromResults {
			return nil, err
		}
	} else if fromResults {
		return nil, fmt.Errorf("%w: caller id required", models.ErrNoSession)
	}

	rec, err := s.engine.Store().Get(index)
	if err != nil {
		return nil, err
	}
	return &models.DetailResponse{
		Record:      rec,
		Market:      market.Compare(rec, s.engine.All()),
		ResultsPage: current,
	}, nil
}

// Market returns the market comparison for one record.
func (s *Service) Market(index int) (*models.MarketReport, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rec, err := s.engine.Store().Get(index)
	if err != nil {
		return nil, err
	}
	return market.Compare(rec, s.engine.All()), nil
}

// Status reports the store and session state. It is available even when the
// store failed to load.
func (s *Service) Status() *models.Status {
	st := s.engine.Store()
	return &models.Status{
		Loaded:   st.Loaded(),
		Source:   st.Source(),
		Records:  st.Len(),
		Sessions: s.sessions.Len(),
		Stale:    st.Stale(),
		LoadedAt: st.LoadedAt(),
	}
}

func (s *Service) save(callerID string, recs []*models.Record) (*models.SearchResponse, error) {
	indices := make([]int, len(recs))
	for i, r := range recs {
		indices[i] = r.Index
	}
	s.sessions.Save(callerID, indices)

	page, err := s.Page(callerID, 0)
	if err != nil {
		return nil, err
	}
	return &models.SearchResponse{CallerID: callerID, Page: page}, nil
}

// resolve turns a page of indices into records.
func (s *Service) resolve(p *session.Page) (*models.Page, error) {
	out := &models.Page{
		Records:      make([]*models.Record, 0, len(p.Indices)),
		Page:         p.Page,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
		PageSize:     p.PageSize,
	}
	for _, idx := range p.Indices {
		rec, err := s.engine.Store().Get(idx)
		if err != nil {
			s.logger.Warn("session references unknown record", zap.Int("index", idx))
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}
