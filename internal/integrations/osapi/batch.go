package osapi

import "osdashboard/internal/domain"

type Outcome string

const (
	OutcomeFetched Outcome = "fetched"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// DetailResult is the outcome of fetching one order's details.
type DetailResult struct {
	OrderNumber int64
	Outcome     Outcome
	Lines       []domain.DetailLine
	Reason      string
	Err         error
}

// DetailBatch aggregates the per-order results of one FetchDetails call.
type DetailBatch struct {
	Results []DetailResult
	Fetched int
	Skipped int
	Failed  int
}

func (b *DetailBatch) add(r DetailResult) {
	switch r.Outcome {
	case OutcomeFetched:
		b.Fetched++
	case OutcomeSkipped:
		b.Skipped++
	case OutcomeFailed:
		b.Failed++
	}
	b.Results = append(b.Results, r)
}

// Groups returns the fetched orders only, in request order.
func (b DetailBatch) Groups() []domain.DetailGroup {
	groups := make([]domain.DetailGroup, 0, b.Fetched)
	for _, r := range b.Results {
		if r.Outcome != OutcomeFetched {
			continue
		}
		groups = append(groups, domain.DetailGroup{OrderNumber: r.OrderNumber, Lines: r.Lines})
	}
	return groups
}

// Errors returns the errors of failed orders.
func (b DetailBatch) Errors() []error {
	var errs []error
	for _, r := range b.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
