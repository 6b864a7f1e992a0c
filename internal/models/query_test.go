package models

import (
	"errors"
	"testing"
)

func TestNameQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *NameQuery
		wantErr bool
	}{
		{"empty query", &NameQuery{Query: ""}, true},
		{"whitespace only", &NameQuery{Query: "   "}, true},
		{"valid query", &NameQuery{Query: "Smith"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("Validate() error = %v, want ErrInvalidQuery", err)
			}
		})
	}
}

func TestSpecialityQuery_Validate(t *testing.T) {
	if err := (&SpecialityQuery{Speciality: " ", Location: "Park"}).Validate(); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("blank speciality: got %v", err)
	}
	if err := (&SpecialityQuery{Speciality: "Therapist"}).Validate(); err != nil {
		t.Errorf("valid speciality: got %v", err)
	}
}

func TestCombinedQuery_Split(t *testing.T) {
	tests := []struct {
		text         string
		wantName     string
		wantSpec     string
		wantLocation string
		wantIsSpec   bool
	}{
		{"Smith John", "Smith John", "", "", false},
		{"  Smith  ", "Smith", "", "", false},
		{"Therapist, Park Station", "", "Therapist", "Park Station", true},
		{"Therapist,", "", "Therapist", "", true},
		{"Therapist, Park, North", "", "Therapist", "Park, North", true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			q := &CombinedQuery{Text: tt.text}
			name, spec, isSpec := q.Split()
			if isSpec != tt.wantIsSpec {
				t.Fatalf("isSpeciality = %v, want %v", isSpec, tt.wantIsSpec)
			}
			if !isSpec {
				if name != tt.wantName {
					t.Errorf("name = %q, want %q", name, tt.wantName)
				}
				return
			}
			if spec.Speciality != tt.wantSpec || spec.Location != tt.wantLocation {
				t.Errorf("got %+v, want %q/%q", spec, tt.wantSpec, tt.wantLocation)
			}
		})
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrDataSourceMissing, "data_source_missing"},
		{ErrEmptyStore, "empty_store"},
		{ErrNotFound, "not_found"},
		{ErrNoSession, "no_session"},
		{ErrInsufficientData, "insufficient_data"},
		{ErrInvalidQuery, "invalid_query"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRecord_DistinctLocations(t *testing.T) {
	r := &Record{Locations: [LocationSlots]string{"Park", "", "Park", "North", "", "South"}}
	got := r.DistinctLocations()
	want := []string{"Park", "North", "South"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}
