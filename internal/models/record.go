// Package models defines core data structures for records, queries, pages, and comparison reports.
package models

// Source group names for the two originating listing sites.
const (
	SourceSber = "sber"
	SourceProd = "prod"
)

// LocationSlots is the number of transit-location slots per record
// (three clinics for each of the two source groups).
const LocationSlots = 6

// Listing is the per-source sub-record of a Record.
type Listing struct {
	Source string   `json:"source"`
	Price  *float64 `json:"price,omitempty"`
	Rating *float64 `json:"rating,omitempty"`
	Link   string   `json:"link,omitempty"`
}

// Record is one professional entry in the store. Optional numeric fields are
// nil when absent so that absence is distinguishable from zero.
type Record struct {
	Index        int                   `json:"index"`
	Name         string                `json:"name"`
	NameKey      string                `json:"-"`
	Specialities []string              `json:"specialities"`
	Experience   *float64              `json:"experience,omitempty"`
	Price        *float64              `json:"price,omitempty"`
	Rating       *float64              `json:"rating,omitempty"`
	Locations    [LocationSlots]string `json:"locations"`
	Listings     [2]Listing            `json:"listings"`
}

// HasSpeciality reports whether the record carries any specialty label.
func (r *Record) HasSpeciality() bool {
	return len(r.Specialities) > 0
}

// DistinctLocations returns the non-empty location slots with duplicates removed,
// in slot order.
func (r *Record) DistinctLocations() []string {
	seen := make(map[string]bool, LocationSlots)
	out := make([]string, 0, LocationSlots)
	for _, loc := range r.Locations {
		if loc == "" || seen[loc] {
			continue
		}
		seen[loc] = true
		out = append(out, loc)
	}
	return out
}

// Listing returns the sub-record for source, or nil if source is unknown.
func (r *Record) Listing(source string) *Listing {
	for i := range r.Listings {
		if r.Listings[i].Source == source {
			return &r.Listings[i]
		}
	}
	return nil
}

// Float returns a pointer to v. Handy for building records in code and tests.
func Float(v float64) *float64 {
	return &v
}
