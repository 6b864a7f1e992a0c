package records

import (
	"math"
	"strconv"
	"strings"

	"github.com/hyperjump/medfinder/internal/models"
	"github.com/hyperjump/medfinder/pkg/utils"
)

// Column names consumed from the source. Header matching is case-insensitive.
const (
	ColName       = "name"
	ColSpeciality = "speciality"
	ColExperience = "experience"
	ColPrice      = "price"
	ColRating     = "rating"
)

// LocationColumns are the six transit-location columns, slot order:
// three clinics of the sber group, then three of the prod group.
var LocationColumns = [models.LocationSlots]string{
	"clinic_1_metro_sber", "clinic_2_metro_sber", "clinic_3_metro_sber",
	"clinic_1_metro_prod", "clinic_2_metro_prod", "clinic_3_metro_prod",
}

var listingSources = [2]string{models.SourceSber, models.SourceProd}

var missingTokens = map[string]bool{
	"": true, "nan": true, "null": true, "none": true, "n/a": true, "-": true,
}

// columnIndex maps normalized header names to their positions. Only the first
// occurrence of a duplicated header is used.
type columnIndex map[string]int

func newColumnIndex(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		key := utils.NormalizeKey(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[key]; !dup && key != "" {
			idx[key] = i
		}
	}
	return idx
}

// cell returns the trimmed cell for column, or "" if the column or cell is absent
// or holds a missing-value token.
func (c columnIndex) cell(row []string, column string) string {
	i, ok := c[column]
	if !ok || i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	if missingTokens[strings.ToLower(v)] {
		return ""
	}
	return v
}

func (c columnIndex) has(column string) bool {
	_, ok := c[column]
	return ok
}

// parseRow builds a record from row. ok is false when the row has no name.
func parseRow(cols columnIndex, row []string, index int) (*models.Record, bool) {
	name := cols.cell(row, ColName)
	if name == "" {
		return nil, false
	}
	rec := &models.Record{
		Index:        index,
		Name:         name,
		NameKey:      utils.NormalizeKey(name),
		Specialities: ParseSpecialities(cols.cell(row, ColSpeciality)),
		Experience:   nonNegative(ParseOptionalFloat(cols.cell(row, ColExperience))),
		Price:        nonNegative(ParseOptionalFloat(cols.cell(row, ColPrice))),
		Rating:       ratingRange(ParseOptionalFloat(cols.cell(row, ColRating))),
	}
	for i, col := range LocationColumns {
		rec.Locations[i] = cols.cell(row, col)
	}
	for i, src := range listingSources {
		rec.Listings[i] = models.Listing{
			Source: src,
			Price:  nonNegative(ParseOptionalFloat(cols.cell(row, "price_"+src))),
			Rating: ratingRange(ParseOptionalFloat(cols.cell(row, "rating_"+src))),
			Link:   cols.cell(row, "link_"+src),
		}
	}
	return rec, true
}

// ParseSpecialities normalizes a specialty cell into an ordered list of labels.
// Labels are separated by ',', ';' or '|'; a list literal such as
// "['Therapist', 'Cardiologist']" is unwrapped first. Empty and repeated
// (case-insensitive) labels are dropped.
func ParseSpecialities(cell string) []string {
	s := strings.TrimSpace(cell)
	if missingTokens[strings.ToLower(s)] {
		return nil
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = strings.NewReplacer("'", "", `"`, "").Replace(s[1 : len(s)-1])
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	seen := make(map[string]bool, len(parts))
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		label := strings.TrimSpace(p)
		key := utils.NormalizeKey(label)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		labels = append(labels, label)
	}
	if len(labels) == 0 {
		return nil
	}
	return labels
}

// ParseOptionalFloat parses a numeric cell. Blank, missing-value tokens, text,
// NaN, and infinities are absent (nil). A decimal comma and digit-group spaces
// are accepted ("1 500,5").
func ParseOptionalFloat(cell string) *float64 {
	s := strings.TrimSpace(cell)
	if missingTokens[strings.ToLower(s)] {
		return nil
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nonNegative(v *float64) *float64 {
	if v == nil || *v < 0 {
		return nil
	}
	return v
}

func ratingRange(v *float64) *float64 {
	if v == nil || *v < 0 || *v > 5 {
		return nil
	}
	return v
}
