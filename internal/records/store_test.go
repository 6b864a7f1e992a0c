package records

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/medfinder/internal/models"
	"github.com/hyperjump/medfinder/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `name,speciality,experience,price,rating,clinic_1_metro_sber,clinic_2_metro_sber,clinic_3_metro_sber,clinic_1_metro_prod,clinic_2_metro_prod,clinic_3_metro_prod,price_sber,rating_sber,link_sber,price_prod,rating_prod,link_prod
Smith John,Therapist,12,1500,4.8,Park Station,,,North,,,1400,4.7,https://sber.example/1,1600,4.9,https://prod.example/1
Smith Anna,"['Therapist', 'Cardiologist']",,1500,4.2,,,,,,,,,,,,
,Surgeon,5,1000,4.0,,,,,,,,,,,,
Doe Jane,Surgeon; Therapist,nan,-20,7,,,,,,,,,,,,
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadPath_csv(t *testing.T) {
	path := writeFile(t, "data.csv", sampleCSV)
	store, err := LoadPath(context.Background(), path, SourceOptions{}, nil)
	require.NoError(t, err)
	require.True(t, store.Loaded())
	assert.Equal(t, path, store.Source())
	assert.Equal(t, 3, store.Len(), "row without a name is skipped")

	smith, err := store.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "Smith John", smith.Name)
	assert.Equal(t, "smith john", smith.NameKey)
	assert.Equal(t, []string{"Therapist"}, smith.Specialities)
	require.NotNil(t, smith.Experience)
	assert.Equal(t, 12.0, *smith.Experience)
	require.NotNil(t, smith.Rating)
	assert.Equal(t, 4.8, *smith.Rating)
	assert.Equal(t, "Park Station", smith.Locations[0])
	assert.Equal(t, "North", smith.Locations[3])
	sber := smith.Listing(models.SourceSber)
	require.NotNil(t, sber)
	assert.Equal(t, "https://sber.example/1", sber.Link)
	require.NotNil(t, sber.Price)
	assert.Equal(t, 1400.0, *sber.Price)

	anna, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Therapist", "Cardiologist"}, anna.Specialities)
	assert.Nil(t, anna.Experience, "blank experience is absent")

	// Index follows the data row, so the skipped row leaves a gap.
	_, err = store.Get(2)
	assert.ErrorIs(t, err, models.ErrNotFound)

	doe, err := store.Get(3)
	require.NoError(t, err)
	assert.Nil(t, doe.Experience, "nan is absent")
	assert.Nil(t, doe.Price, "negative price is absent")
	assert.Nil(t, doe.Rating, "rating outside [0,5] is absent")
	assert.Equal(t, []string{"Surgeon", "Therapist"}, doe.Specialities)
}

func TestStore_GetIsStable(t *testing.T) {
	path := writeFile(t, "data.csv", sampleCSV)
	store, err := LoadPath(context.Background(), path, SourceOptions{}, nil)
	require.NoError(t, err)
	for _, r := range store.All() {
		first, err := store.Get(r.Index)
		require.NoError(t, err)
		second, err := store.Get(r.Index)
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, r.Index, first.Index)
	}
}

func TestLoadPath_missingFile(t *testing.T) {
	store, err := LoadPath(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), SourceOptions{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDataSourceMissing))
	require.NotNil(t, store, "failed load still yields a usable empty store")
	assert.True(t, store.IsEmpty())
	assert.False(t, store.Loaded())
}

func TestLoadPath_noNameColumn(t *testing.T) {
	path := writeFile(t, "data.csv", "speciality,price\nTherapist,100\n")
	store, err := LoadPath(context.Background(), path, SourceOptions{}, nil)
	assert.ErrorIs(t, err, models.ErrDataSourceMissing)
	assert.True(t, store.IsEmpty())
}

func TestLoadPath_headerOnlyIsEmptyNotError(t *testing.T) {
	path := writeFile(t, "data.csv", "name,speciality\n")
	store, err := LoadPath(context.Background(), path, SourceOptions{}, nil)
	require.NoError(t, err)
	assert.True(t, store.Loaded())
	assert.True(t, store.IsEmpty())
}

func TestLoadPath_missingOptionalColumns(t *testing.T) {
	path := writeFile(t, "data.csv", "\ufeffName\nSmith John\n")
	store, err := LoadPath(context.Background(), path, SourceOptions{}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())
	r, err := store.Get(0)
	require.NoError(t, err)
	assert.Nil(t, r.Specialities)
	assert.Nil(t, r.Price)
	assert.Nil(t, r.Rating)
	assert.Empty(t, r.DistinctLocations())
}

func TestLoadPath_xlsx(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"name", "speciality", "price", "rating"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Smith John", "Therapist", 1500, 4.5}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"Doe Jane", "Surgeon"}))
	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.SaveAs(path))

	store, err := LoadPath(context.Background(), path, SourceOptions{}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())
	r, err := store.Get(0)
	require.NoError(t, err)
	require.NotNil(t, r.Price)
	assert.Equal(t, 1500.0, *r.Price)
	require.NotNil(t, r.Rating)
	assert.Equal(t, 4.5, *r.Rating)
	doe, err := store.Get(1)
	require.NoError(t, err)
	assert.Nil(t, doe.Price)
}

func TestLoadPath_xlsxMissingSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, err := LoadPath(context.Background(), path, SourceOptions{Sheet: "Doctors"}, nil)
	assert.ErrorIs(t, err, models.ErrDataSourceMissing)
}

func TestLoadPath_sqlite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	err := storage.ImportRows(context.Background(), path, "roster",
		[]string{"name", "speciality", "rating"},
		[][]string{{"Smith John", "Therapist", "4.8"}, {"Doe Jane", "Surgeon", ""}})
	require.NoError(t, err)

	store, err := LoadPath(context.Background(), path, SourceOptions{Table: "roster"}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())
	doe, err := store.Get(1)
	require.NoError(t, err)
	assert.Nil(t, doe.Rating)
}

func TestNewStore(t *testing.T) {
	store := NewStore([]*models.Record{
		{Index: 7, Name: " Smith John "},
		{Index: 7, Name: "Duplicate"},
		{Index: 2, Name: "Doe"},
	})
	assert.Equal(t, 2, store.Len())
	r, err := store.Get(7)
	require.NoError(t, err)
	assert.Equal(t, "smith john", r.NameKey)
	all := store.All()
	assert.Equal(t, 7, all[0].Index, "store order is insertion order")
	assert.Equal(t, 2, all[1].Index)
}

func TestStore_MarkStale(t *testing.T) {
	store := NewStore(nil)
	assert.False(t, store.Stale())
	store.MarkStale()
	assert.True(t, store.Stale())
}
