package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/medfinder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestManager_GetPage_noSession(t *testing.T) {
	m := NewManager(Options{})
	_, err := m.GetPage("alice", 0, 5)
	assert.ErrorIs(t, err, models.ErrNoSession)
	_, err = m.Current("alice")
	assert.ErrorIs(t, err, models.ErrNoSession)
}

func TestManager_GetPage_clamps(t *testing.T) {
	m := NewManager(Options{})
	m.Save("alice", seq(12))

	tests := []struct {
		name        string
		page        int
		wantPage    int
		wantIndices []int
	}{
		{"first page", 0, 0, []int{0, 1, 2, 3, 4}},
		{"middle page", 1, 1, []int{5, 6, 7, 8, 9}},
		{"last page is short", 2, 2, []int{10, 11}},
		{"past the end clamps to last", 5, 2, []int{10, 11}},
		{"negative clamps to first", -3, 0, []int{0, 1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := m.GetPage("alice", tt.page, 5)
			require.NoError(t, err)
			assert.Equal(t, 3, p.TotalPages)
			assert.Equal(t, 12, p.TotalResults)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantIndices, p.Indices)

			s, err := m.Current("alice")
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, s.CurrentPage, "resolved page is persisted")
		})
	}
}

func TestManager_GetPage_defaultPageSize(t *testing.T) {
	m := NewManager(Options{})
	m.Save("alice", seq(7))
	p, err := m.GetPage("alice", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, []int{5, 6}, p.Indices)

	m = NewManager(Options{PageSize: 3})
	m.Save("alice", seq(7))
	p, err = m.GetPage("alice", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, p.TotalPages)
}

func TestManager_GetPage_emptyResults(t *testing.T) {
	m := NewManager(Options{})
	m.Save("alice", nil)
	p, err := m.GetPage("alice", 3, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, p.TotalPages)
	assert.Equal(t, 0, p.TotalResults)
	assert.Empty(t, p.Indices)
}

func TestManager_SaveReplacesSession(t *testing.T) {
	m := NewManager(Options{})
	m.Save("alice", []int{100, 101, 102, 103, 104, 105})
	_, err := m.GetPage("alice", 1, 5)
	require.NoError(t, err)

	m.Save("alice", []int{7, 8})
	p, err := m.GetPage("alice", 1, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 8}, p.Indices)
	assert.Equal(t, 1, p.TotalPages)

	s, err := m.Current("alice")
	require.NoError(t, err)
	assert.Equal(t, []int{7, 8}, s.Indices)
	for _, old := range []int{100, 101, 105} {
		assert.False(t, s.Contains(old))
	}
}

func TestManager_SaveResetsCursor(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewManager(Options{Now: func() time.Time { return now }})
	m.Save("alice", seq(20))
	_, err := m.GetPage("alice", 3, 5)
	require.NoError(t, err)

	m.Save("alice", seq(20))
	s, err := m.Current("alice")
	require.NoError(t, err)
	assert.Equal(t, 0, s.CurrentPage)
	assert.Equal(t, now, s.CreatedAt)
}

func TestManager_SaveCopiesInput(t *testing.T) {
	m := NewManager(Options{})
	in := []int{1, 2, 3}
	m.Save("alice", in)
	in[0] = 99
	p, err := m.GetPage("alice", 0, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, p.Indices)
}

func TestManager_CallersAreIndependent(t *testing.T) {
	m := NewManager(Options{})
	m.Save("alice", seq(3))
	m.Save("bob", []int{9})
	pa, err := m.GetPage("alice", 0, 5)
	require.NoError(t, err)
	pb, err := m.GetPage("bob", 0, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, pa.Indices)
	assert.Equal(t, []int{9}, pb.Indices)
	assert.Equal(t, 2, m.Len())
}

func TestManager_EvictsLeastRecentlyUsed(t *testing.T) {
	m := NewManager(Options{MaxSessions: 2})
	m.Save("a", seq(1))
	m.Save("b", seq(1))
	m.Save("c", seq(1))
	assert.Equal(t, 2, m.Len())
	_, err := m.GetPage("a", 0, 5)
	assert.ErrorIs(t, err, models.ErrNoSession)
}

func TestManager_ExpiresAfterTTL(t *testing.T) {
	m := NewManager(Options{TTL: 20 * time.Millisecond})
	m.Save("alice", seq(3))
	require.Eventually(t, func() bool {
		_, err := m.GetPage("alice", 0, 5)
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(Options{Shards: 4})
	var wg sync.WaitGroup
	for c := 0; c < 16; c++ {
		caller := fmt.Sprintf("caller-%d", c)
		m.Save(caller, seq(50))
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func(page int) {
				defer wg.Done()
				p, err := m.GetPage(caller, page, 5)
				if err != nil {
					t.Error(err)
					return
				}
				if len(p.Indices) != 5 {
					t.Errorf("page %d: got %d indices", page, len(p.Indices))
				}
			}(g)
		}
	}
	wg.Wait()
	assert.Equal(t, 16, m.Len())
}
