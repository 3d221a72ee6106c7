package batch

import (
	"time"

	"github.com/jonwraymond/probeops/check"
)

// ItemResult pairs a request identity with its outcome.
type ItemResult struct {
	// ID is the request identity (caller-supplied or generated).
	ID string

	// Outcome is the resolved outcome, real or timeout-synthesized.
	Outcome check.Outcome
}

// Summary tallies outcomes by kind.
type Summary struct {
	Success int `json:"success"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

// Add counts one outcome of the given kind.
func (s *Summary) Add(k check.Kind) {
	switch k {
	case check.KindSuccess:
		s.Success++
	case check.KindWarning:
		s.Warning++
	default:
		s.Error++
	}
}

// Total returns the number of tallied outcomes.
func (s Summary) Total() int {
	return s.Success + s.Warning + s.Error
}

// Result is the aggregate outcome of one batch run.
//
// Items are ordered by submission order, not completion order, and
// len(Items) always equals the number of submitted requests.
type Result struct {
	// BatchID uniquely identifies this run.
	BatchID string

	// Items holds one entry per submitted request, in submission order.
	Items []ItemResult

	// Summary tallies the items by outcome kind.
	Summary Summary

	// Elapsed is the wall-clock time from batch start to aggregation
	// complete. Unlike a single outcome's Elapsed it includes queueing
	// delay.
	Elapsed time.Duration
}

// aggregate assembles the final Result from resolved items. Pure data
// transformation; item order is already submission order.
func aggregate(batchID string, items []ItemResult, elapsed time.Duration) *Result {
	res := &Result{
		BatchID: batchID,
		Items:   items,
		Elapsed: elapsed,
	}
	for i := range items {
		res.Summary.Add(items[i].Outcome.Kind)
	}
	return res
}

// Report is the JSON-friendly view of a Result, the shape consumed by the
// REST and CLI front-ends.
type Report struct {
	BatchID             string       `json:"batch_id"`
	Results             []ReportItem `json:"results"`
	Summary             Summary      `json:"summary"`
	TotalElapsedSeconds float64      `json:"total_elapsed_seconds"`
}

// ReportItem is the JSON-friendly view of one item.
type ReportItem struct {
	Identity       string         `json:"identity"`
	OutcomeKind    check.Kind     `json:"outcome_kind"`
	Message        string         `json:"message"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
	RawData        map[string]any `json:"raw_data,omitempty"`
}

// Report converts the result into its wire representation.
func (r *Result) Report() Report {
	rep := Report{
		BatchID:             r.BatchID,
		Results:             make([]ReportItem, len(r.Items)),
		Summary:             r.Summary,
		TotalElapsedSeconds: r.Elapsed.Seconds(),
	}
	for i, item := range r.Items {
		rep.Results[i] = ReportItem{
			Identity:       item.ID,
			OutcomeKind:    item.Outcome.Kind,
			Message:        item.Outcome.Message,
			ElapsedSeconds: item.Outcome.Elapsed.Seconds(),
			RawData:        item.Outcome.Raw,
		}
	}
	return rep
}
