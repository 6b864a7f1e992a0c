package search

import (
	"fmt"
	"strings"

	"github.com/hyperjump/medfinder/internal/models"
)

// ProcessNameQuery validates and trims a name query.
func ProcessNameQuery(q *models.NameQuery) error {
	if err := q.Validate(); err != nil {
		return err
	}
	q.Query = strings.TrimSpace(q.Query)
	return nil
}

// ProcessSpecialityQuery validates and trims a specialty query. A blank
// location is cleared.
func ProcessSpecialityQuery(q *models.SpecialityQuery) error {
	if err := q.Validate(); err != nil {
		return err
	}
	q.Speciality = strings.TrimSpace(q.Speciality)
	q.Location = strings.TrimSpace(q.Location)
	return nil
}

// ParseCombinedQuery classifies and validates free text in the
// "speciality, location" convention.
func ParseCombinedQuery(text string) (*ParsedQuery, error) {
	cq := models.CombinedQuery{Text: text}
	name, spec, isSpeciality := cq.Split()
	if isSpeciality {
		if err := ProcessSpecialityQuery(spec); err != nil {
			return nil, err
		}
		return &ParsedQuery{Speciality: spec}, nil
	}
	q := models.NameQuery{Query: name}
	if err := ProcessNameQuery(&q); err != nil {
		return nil, fmt.Errorf("%w: enter a name, or \"speciality, location\"", err)
	}
	return &ParsedQuery{Name: q.Query}, nil
}
