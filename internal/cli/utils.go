// Package cli provides output formatting for the medfinder command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/hyperjump/medfinder/internal/models"
	"github.com/hyperjump/medfinder/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text or json)", s)
	}
}

var sourceLabels = map[string]string{
	models.SourceSber: "SberHealth",
	models.SourceProd: "ProDoctors",
}

const noData = "no data"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResponse writes a search outcome: exact matches as detail views,
// otherwise the first page of results.
func WriteSearchResponse(w io.Writer, resp *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	if len(resp.Matches) > 0 {
		for i, rec := range resp.Matches {
			if i > 0 {
				fmt.Fprintln(w, "─────────────────────────────────────────────────────────")
			}
			writeRecordText(w, rec)
		}
		return nil
	}
	if resp.Page != nil {
		writePageText(w, resp.Page)
	}
	return nil
}

// WritePage writes one page of results.
func WritePage(w io.Writer, page *models.Page, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, page)
	}
	writePageText(w, page)
	return nil
}

// WriteDetail writes a record with its market comparison.
func WriteDetail(w io.Writer, d *models.DetailResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, d)
	}
	writeRecordText(w, d.Record)
	if d.Market != nil {
		writeMarketText(w, d.Market)
	}
	if d.ResultsPage != nil {
		fmt.Fprintf(w, "\nBack to results: page %d\n", *d.ResultsPage+1)
	}
	return nil
}

// WriteMarket writes a market comparison report.
func WriteMarket(w io.Writer, report *models.MarketReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	writeMarketText(w, report)
	return nil
}

// WriteStatus writes the store and session status.
func WriteStatus(w io.Writer, st *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "Source:   %s\n", st.Source)
	fmt.Fprintf(w, "Loaded:   %t\n", st.Loaded)
	fmt.Fprintf(w, "Records:  %d\n", st.Records)
	fmt.Fprintf(w, "Sessions: %d\n", st.Sessions)
	if st.Stale {
		fmt.Fprintln(w, "Source changed on disk since loading; restart to pick up changes.")
	}
	return nil
}

func writePageText(w io.Writer, page *models.Page) {
	fmt.Fprintf(w, "Found %d matches\n\n", page.TotalResults)
	n := page.FirstOrdinal()
	for i, rec := range page.Records {
		fmt.Fprintf(w, "%d. %s [#%d]\n", n+i, rec.Name, rec.Index)
		fmt.Fprintf(w, "Speciality: %s\n", specialities(rec))
		if rec.Experience != nil {
			fmt.Fprintf(w, "Experience: %s years\n", formatNumber(rec.Experience))
		}
		if rec.Price != nil {
			fmt.Fprintf(w, "Price: %s\n", formatNumber(rec.Price))
		}
		if rec.Rating != nil {
			fmt.Fprintf(w, "Rating: %s/5.0\n", formatNumber(rec.Rating))
		}
		fmt.Fprintf(w, "Metro: %s\n\n", locations(rec))
	}
	if page.TotalPages > 0 {
		fmt.Fprintf(w, "Page %d of %d\n", page.Page+1, page.TotalPages)
		fmt.Fprintf(w, "Details: %s\n", strings.Join(ResultButtons(page), "; "))
	}
}

func writeRecordText(w io.Writer, rec *models.Record) {
	fmt.Fprintf(w, "Name: %s [#%d]\n", rec.Name, rec.Index)
	fmt.Fprintf(w, "Metro: %s\n", locations(rec))
	fmt.Fprintf(w, "Speciality: %s\n", specialities(rec))
	if rec.Experience != nil {
		fmt.Fprintf(w, "Experience: %s years\n", formatNumber(rec.Experience))
	} else {
		fmt.Fprintf(w, "Experience: %s\n", noData)
	}
	if rec.Rating != nil {
		fmt.Fprintf(w, "Weighted rating: %s/5.0\n", formatNumber(rec.Rating))
	}
	for _, l := range rec.Listings {
		label := sourceLabels[l.Source]
		if label == "" {
			label = l.Source
		}
		fmt.Fprintf(w, "\n%s:\n", label)
		fmt.Fprintf(w, "Price: %s\n", orNoData(l.Price))
		fmt.Fprintf(w, "Rating: %s\n", orNoData(l.Rating))
		if l.Link != "" {
			fmt.Fprintf(w, "Link: %s\n", l.Link)
		}
	}
	fmt.Fprintln(w)
}

func writeMarketText(w io.Writer, report *models.MarketReport) {
	fmt.Fprintln(w, "Market comparison:")
	writeComparison(w, "Price", report.Price)
	writeComparison(w, "Rating", report.Rating)
	if report.PeerCount > 0 {
		fmt.Fprintf(w, "\nCompared with %d doctors of the same speciality\n", report.PeerCount)
	}
}

func writeComparison(w io.Writer, metric string, c models.Comparison) {
	switch c.Status {
	case models.StatusAbove:
		fmt.Fprintf(w, "%s is above the market by %.1f\n", metric, math.Abs(c.Difference))
	case models.StatusBelow:
		fmt.Fprintf(w, "%s is below the market by %.1f\n", metric, math.Abs(c.Difference))
	case models.StatusEqual:
		fmt.Fprintf(w, "%s matches the market average\n", metric)
	default:
		fmt.Fprintf(w, "No data to compare %s\n", strings.ToLower(metric))
	}
}

func specialities(rec *models.Record) string {
	if !rec.HasSpeciality() {
		return noData
	}
	return strings.Join(rec.Specialities, ", ")
}

func locations(rec *models.Record) string {
	locs := rec.DistinctLocations()
	if len(locs) == 0 {
		return noData
	}
	return strings.Join(locs, ", ")
}

func orNoData(v *float64) string {
	if v == nil {
		return noData
	}
	return formatNumber(v)
}

func formatNumber(v *float64) string {
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ResultButtons returns the short labels for the records on a page, numbered
// from the page's first ordinal, with the record index to pass to "record"
// ("3 - Smith #17").
func ResultButtons(page *models.Page) []string {
	out := make([]string, 0, len(page.Records))
	n := page.FirstOrdinal()
	for i, rec := range page.Records {
		out = append(out, fmt.Sprintf("%d - %s #%d", n+i, utils.Truncate(utils.FirstWord(rec.Name), 24), rec.Index))
	}
	return out
}
