package models

import (
	"fmt"
	"strings"
)

// NameQuery is a lookup by name.
type NameQuery struct {
	Query string `json:"query"`
}

// Validate returns ErrInvalidQuery when the query is blank.
func (q *NameQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidQuery)
	}
	return nil
}

// SpecialityQuery is a lookup by specialty, optionally narrowed by a transit location.
type SpecialityQuery struct {
	Speciality string `json:"speciality"`
	Location   string `json:"location,omitempty"`
}

// Validate returns ErrInvalidQuery when the specialty is blank.
func (q *SpecialityQuery) Validate() error {
	if strings.TrimSpace(q.Speciality) == "" {
		return fmt.Errorf("%w: speciality cannot be empty", ErrInvalidQuery)
	}
	return nil
}

// CombinedQuery is free text in the chat convention: "speciality, location"
// when it contains a comma, otherwise a name.
type CombinedQuery struct {
	Text string `json:"text"`
}

// Split classifies the text. When isSpeciality is false, name holds the name query.
func (q *CombinedQuery) Split() (name string, spec *SpecialityQuery, isSpeciality bool) {
	text := strings.TrimSpace(q.Text)
	before, after, found := strings.Cut(text, ",")
	if !found {
		return text, nil, false
	}
	return "", &SpecialityQuery{
		Speciality: strings.TrimSpace(before),
		Location:   strings.TrimSpace(after),
	}, true
}
