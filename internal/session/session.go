// Package session keeps per-caller search results and pagination cursors.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/hyperjump/medfinder/internal/models"
	"github.com/hyperjump/medfinder/pkg/utils"
	"go.uber.org/zap"
)

// DefaultPageSize is used when a page is requested without a size.
const DefaultPageSize = 5

// Session is one caller's saved result set and cursor.
type Session struct {
	Indices     []int     `json:"indices"`
	CurrentPage int       `json:"current_page"`
	CreatedAt   time.Time `json:"created_at"`
}

// Page is a slice of a session's result indices.
type Page struct {
	Indices      []int `json:"indices"`
	Page         int   `json:"page"`
	TotalPages   int   `json:"total_pages"`
	TotalResults int   `json:"total_results"`
	PageSize     int   `json:"page_size"`
}

// Options configures a Manager. Zero values select defaults.
type Options struct {
	// TTL bounds how long an untouched session is kept (default 24h).
	TTL time.Duration
	// MaxSessions caps the number of sessions; least recently used are evicted (default 10000).
	MaxSessions int
	// Shards is the number of lock stripes (default 64).
	Shards int
	// PageSize is the default page size (default 5).
	PageSize int
	Logger   *zap.Logger
	// Now overrides the clock used for CreatedAt.
	Now func() time.Time
}

// Manager holds sessions keyed by an opaque caller ID. Operations for the same
// caller are serialized on a lock stripe chosen by hashing the ID; callers on
// different stripes proceed in parallel.
type Manager struct {
	sessions *expirable.LRU[string, *Session]
	locks    []sync.Mutex
	pageSize int
	now      func() time.Time
	logger   *zap.Logger
}

// NewManager creates a session manager.
func NewManager(opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 10000
	}
	if opts.Shards <= 0 {
		opts.Shards = 64
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &Manager{
		locks:    make([]sync.Mutex, opts.Shards),
		pageSize: opts.PageSize,
		now:      opts.Now,
		logger:   utils.OrNop(opts.Logger),
	}
	m.sessions = expirable.NewLRU[string, *Session](opts.MaxSessions, m.onEvict, opts.TTL)
	return m
}

func (m *Manager) onEvict(callerID string, s *Session) {
	m.logger.Debug("session evicted",
		zap.String("caller_id", callerID),
		zap.Int("results", len(s.Indices)),
		zap.Time("created_at", s.CreatedAt),
	)
}

func (m *Manager) lockFor(callerID string) *sync.Mutex {
	return &m.locks[xxhash.Sum64String(callerID)%uint64(len(m.locks))]
}

// Save replaces any prior session for callerID with a fresh one at page 0.
// indices is copied.
func (m *Manager) Save(callerID string, indices []int) {
	mu := m.lockFor(callerID)
	mu.Lock()
	defer mu.Unlock()

	m.sessions.Add(callerID, &Session{
		Indices:     append([]int{}, indices...),
		CurrentPage: 0,
		CreatedAt:   m.now(),
	})
	m.logger.Debug("session saved", zap.String("caller_id", callerID), zap.Int("results", len(indices)))
}

// GetPage returns page of the caller's results. Out-of-range pages are clamped
// into [0, TotalPages-1] and the resolved page becomes the session's current page.
// An empty result set yields an empty page with TotalPages 0.
// pageSize <= 0 selects the default. Returns models.ErrNoSession if the caller
// has no saved search.
func (m *Manager) GetPage(callerID string, page, pageSize int) (*Page, error) {
	if pageSize <= 0 {
		pageSize = m.pageSize
	}
	mu := m.lockFor(callerID)
	mu.Lock()
	defer mu.Unlock()

	s, ok := m.sessions.Get(callerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNoSession, callerID)
	}

	total := len(s.Indices)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		s.CurrentPage = 0
		return &Page{Indices: []int{}, TotalPages: 0, TotalResults: 0, PageSize: pageSize}, nil
	}
	if page >= totalPages {
		page = totalPages - 1
	}
	if page < 0 {
		page = 0
	}
	start := page * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	s.CurrentPage = page

	return &Page{
		Indices:      append([]int{}, s.Indices[start:end]...),
		Page:         page,
		TotalPages:   totalPages,
		TotalResults: total,
		PageSize:     pageSize,
	}, nil
}

// Current returns a copy of the caller's session, or models.ErrNoSession.
func (m *Manager) Current(callerID string) (Session, error) {
	mu := m.lockFor(callerID)
	mu.Lock()
	defer mu.Unlock()

	s, ok := m.sessions.Peek(callerID)
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", models.ErrNoSession, callerID)
	}
	cp := *s
	cp.Indices = append([]int{}, s.Indices...)
	return cp, nil
}

// Contains reports whether the caller's saved results include index.
func (s Session) Contains(index int) bool {
	for _, i := range s.Indices {
		if i == index {
			return true
		}
	}
	return false
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.sessions.Len()
}
