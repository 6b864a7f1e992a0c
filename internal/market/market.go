// Package market compares a record's price and rating with the records that
// share one of its specialities.
package market

import (
	"strings"

	"github.com/hyperjump/medfinder/internal/models"
	"github.com/hyperjump/medfinder/pkg/utils"
)

// MinPeers is the smallest peer group, focal record included, that gives a baseline.
const MinPeers = 2

// Peers returns the records in all that share at least one speciality label
// with focal. Labels are compared case-insensitively. The focal record is part
// of its own peer group when it appears in all.
func Peers(focal *models.Record, all []*models.Record) []*models.Record {
	if focal == nil || len(focal.Specialities) == 0 {
		return nil
	}
	labels := make(map[string]struct{}, len(focal.Specialities))
	for _, s := range focal.Specialities {
		labels[strings.ToLower(s)] = struct{}{}
	}

	var peers []*models.Record
	for _, r := range all {
		for _, s := range r.Specialities {
			if _, ok := labels[strings.ToLower(s)]; ok {
				peers = append(peers, r)
				break
			}
		}
	}
	return peers
}

// Compare builds the market report for focal against the peer group drawn from all.
func Compare(focal *models.Record, all []*models.Record) *models.MarketReport {
	report := &models.MarketReport{
		Price:  insufficient(nil),
		Rating: insufficient(nil),
	}
	if focal == nil {
		return report
	}
	report.RecordIndex = focal.Index
	report.Price.Focal = focal.Price
	report.Rating.Focal = focal.Rating

	peers := Peers(focal, all)
	if len(peers) < MinPeers {
		return report
	}

	prices := make([]*float64, len(peers))
	ratings := make([]*float64, len(peers))
	for i, p := range peers {
		prices[i] = p.Price
		ratings[i] = p.Rating
	}
	report.Price = compare(focal.Price, prices)
	report.Rating = compare(focal.Rating, ratings)

	if report.Price.Available() || report.Rating.Available() {
		report.PeerCount = len(peers)
	}
	return report
}

func compare(focal *float64, peerValues []*float64) models.Comparison {
	if focal == nil {
		return insufficient(nil)
	}
	mean, n, ok := utils.Mean(peerValues)
	if !ok {
		return insufficient(focal)
	}

	diff := utils.Round1(*focal - mean)
	status := models.StatusEqual
	switch {
	case diff > 0:
		status = models.StatusAbove
	case diff < 0:
		status = models.StatusBelow
	default:
		diff = 0 // drop negative zero
	}
	return models.Comparison{
		Status:     status,
		Focal:      focal,
		PeerMean:   models.Float(mean),
		Difference: diff,
		Samples:    n,
	}
}

func insufficient(focal *float64) models.Comparison {
	return models.Comparison{Status: models.StatusInsufficientData, Focal: focal}
}
