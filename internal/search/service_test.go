package search

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hyperjump/medfinder/internal/models"
	"github.com/hyperjump/medfinder/internal/records"
	"github.com/hyperjump/medfinder/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(store *records.Store) *Service {
	return NewService(NewEngine(store, nil), session.NewManager(session.Options{}), nil)
}

func bigStore(n int) *records.Store {
	recs := make([]*models.Record, n)
	for i := range recs {
		recs[i] = doctor(i, fmt.Sprintf("Doctor %02d", i), f(1000), f(4.0), []string{"Therapist"})
	}
	return records.NewStore(recs)
}

func TestService_ByName_exactSavesNoSession(t *testing.T) {
	svc := newService(fixtureStore())
	resp, err := svc.ByName("alice", "Brown Alice")
	require.NoError(t, err)
	assert.Equal(t, models.MatchExact, resp.Mode)
	assert.Equal(t, []int{2}, indices(resp.Matches))
	assert.Nil(t, resp.Page)

	_, err = svc.Page("alice", 0)
	assert.ErrorIs(t, err, models.ErrNoSession)
}

func TestService_ByName_partialSavesSession(t *testing.T) {
	svc := newService(fixtureStore())
	resp, err := svc.ByName("alice", "smi")
	require.NoError(t, err)
	assert.Equal(t, models.MatchPartial, resp.Mode)
	assert.True(t, resp.Ranked)
	require.NotNil(t, resp.Page)
	assert.Equal(t, []int{1, 0, 4}, indices(resp.Page.Records))
	assert.Equal(t, 1, resp.Page.TotalPages)
}

func TestService_ByName_errors(t *testing.T) {
	svc := newService(fixtureStore())
	_, err := svc.ByName("alice", "Nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = newService(records.NewStore(nil)).ByName("alice", "Smith")
	assert.ErrorIs(t, err, models.ErrEmptyStore)
}

func TestService_BySpeciality(t *testing.T) {
	svc := newService(fixtureStore())
	resp, err := svc.BySpeciality("alice", "Therapist", "Park Station")
	require.NoError(t, err)
	assert.True(t, resp.Ranked)
	assert.Equal(t, []int{5, 0, 2}, indices(resp.Page.Records))

	_, err = svc.BySpeciality("alice", "Therapist", "Nowhere")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// a failed search leaves the previous session in place
	p, err := svc.Page("alice", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 0, 2}, indices(p.Records))
}

func TestService_Find(t *testing.T) {
	svc := newService(fixtureStore())
	resp, err := svc.Find("alice", "therapist, central")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, indices(resp.Page.Records))

	resp, err = svc.Find("alice", "white carol")
	require.NoError(t, err)
	assert.Equal(t, models.MatchExact, resp.Mode)

	_, err = svc.Find("alice", " ")
	assert.ErrorIs(t, err, models.ErrInvalidQuery)
}

func TestService_PagingClampsAndReplaces(t *testing.T) {
	svc := newService(bigStore(12))
	resp, err := svc.All("alice")
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Page.TotalPages)
	assert.Equal(t, 12, resp.Page.TotalResults)
	assert.False(t, resp.Ranked)

	p, err := svc.Page("alice", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, []int{10, 11}, indices(p.Records))
	assert.Equal(t, 11, p.FirstOrdinal())

	_, err = svc.BySpeciality("alice", "nothing-like-this", "")
	assert.ErrorIs(t, err, models.ErrNotFound)

	resp, err = svc.ByName("alice", "Doctor 0")
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Page.TotalResults)
	p, err = svc.Page("alice", 9)
	require.NoError(t, err)
	for _, r := range p.Records {
		assert.Less(t, r.Index, 10, "no record from the earlier search")
	}
}

func TestService_Detail(t *testing.T) {
	svc := newService(fixtureStore())

	d, err := svc.Detail("", 0, false)
	require.NoError(t, err)
	assert.Equal(t, "Smith John", d.Record.Name)
	require.NotNil(t, d.Market)
	assert.Equal(t, models.StatusBelow, d.Market.Rating.Status)
	assert.Nil(t, d.ResultsPage)

	_, err = svc.Detail("alice", 0, true)
	assert.ErrorIs(t, err, models.ErrNoSession)

	_, err = svc.ByName("alice", "smi")
	require.NoError(t, err)
	d, err = svc.Detail("alice", 4, true)
	require.NoError(t, err)
	require.NotNil(t, d.ResultsPage)
	assert.Equal(t, 0, *d.ResultsPage)

	_, err = svc.Detail("alice", 3, true)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Detail("alice", 99, false)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestService_Market(t *testing.T) {
	svc := newService(fixtureStore())
	report, err := svc.Market(3)
	require.NoError(t, err)
	// the only dentist
	assert.ErrorIs(t, report.Err(), models.ErrInsufficientData)
}

func TestService_refusesWhenSourceMissing(t *testing.T) {
	store, err := records.LoadPath(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), records.SourceOptions{}, nil)
	require.ErrorIs(t, err, models.ErrDataSourceMissing)
	svc := newService(store)

	_, err = svc.Find("alice", "Smith")
	assert.ErrorIs(t, err, models.ErrDataSourceMissing)
	_, err = svc.Page("alice", 0)
	assert.ErrorIs(t, err, models.ErrDataSourceMissing)

	st := svc.Status()
	assert.False(t, st.Loaded)
	assert.Equal(t, 0, st.Records)
}

func TestService_Status(t *testing.T) {
	svc := newService(fixtureStore())
	_, err := svc.All("alice")
	require.NoError(t, err)
	st := svc.Status()
	assert.True(t, st.Loaded)
	assert.Equal(t, 6, st.Records)
	assert.Equal(t, 1, st.Sessions)
	assert.False(t, st.Stale)
}
