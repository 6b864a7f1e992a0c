package models

// ComparisonStatus classifies a focal value against the peer mean.
type ComparisonStatus string

const (
	StatusAbove            ComparisonStatus = "above"
	StatusBelow            ComparisonStatus = "below"
	StatusEqual            ComparisonStatus = "equal"
	StatusInsufficientData ComparisonStatus = "insufficient_data"
)

// Comparison is one metric compared against the peer group.
type Comparison struct {
	Status     ComparisonStatus `json:"status"`
	Focal      *float64         `json:"focal,omitempty"`
	PeerMean   *float64         `json:"peer_mean,omitempty"`
	Difference float64          `json:"difference"`
	// Samples is the number of peer records that carried the metric.
	Samples int `json:"samples,omitempty"`
}

// Available reports whether the comparison produced a baseline.
func (c Comparison) Available() bool {
	return c.Status != StatusInsufficientData
}

// MarketReport compares a record's price and rating against records sharing a specialty.
type MarketReport struct {
	RecordIndex int        `json:"record_index"`
	PeerCount   int        `json:"peer_count,omitempty"`
	Price       Comparison `json:"price"`
	Rating      Comparison `json:"rating"`
}

// Err returns ErrInsufficientData when neither metric could be compared.
func (r *MarketReport) Err() error {
	if !r.Price.Available() && !r.Rating.Available() {
		return ErrInsufficientData
	}
	return nil
}
