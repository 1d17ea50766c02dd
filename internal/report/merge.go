package report

import (
	"sort"
	"time"

	"osdashboard/internal/domain"
)

// MergedRow is a work order joined with its aggregated detail value and its
// derived situation. Parsed timestamps are nil when absent or unparsable.
type MergedRow struct {
	domain.WorkOrder
	TotalValue float64          `json:"valortotal"`
	Situation  domain.Situation `json:"situacao"`

	Created  *time.Time `json:"-"`
	Started  *time.Time `json:"-"`
	Finished *time.Time `json:"-"`
}

// BuildMergedView unions session and persisted data and left-joins headers
// with their detail totals. Session headers replace persisted ones with the
// same order number; an order with session detail lines ignores its
// persisted lines. Rows are ordered by order number and there is exactly one
// per distinct header.
func BuildMergedView(
	sessionHeaders []domain.WorkOrder,
	sessionDetails []domain.DetailLine,
	persistedHeaders []domain.WorkOrder,
	persistedDetails []domain.DetailLine,
	loc *time.Location,
) []MergedRow {
	headers := make(map[int64]domain.WorkOrder, len(sessionHeaders)+len(persistedHeaders))
	for _, wo := range persistedHeaders {
		headers[wo.Number] = wo
	}
	for _, wo := range sessionHeaders {
		headers[wo.Number] = wo
	}

	totals := make(map[int64]float64)
	inSession := make(map[int64]bool)
	for _, line := range sessionDetails {
		inSession[line.OrderNumber] = true
		totals[line.OrderNumber] += domain.ParseNumber(line.TotalValue)
	}
	for _, line := range persistedDetails {
		if inSession[line.OrderNumber] {
			continue
		}
		totals[line.OrderNumber] += domain.ParseNumber(line.TotalValue)
	}

	rows := make([]MergedRow, 0, len(headers))
	for number, wo := range headers {
		row := MergedRow{
			WorkOrder:  wo,
			TotalValue: totals[number],
			Created:    parseTime(wo.CreatedAt, loc),
			Started:    parseTime(wo.StartedAt, loc),
			Finished:   parseTime(wo.FinishedAt, loc),
		}
		row.Situation = domain.Classify(row.TotalValue, wo.Status, row.Started != nil, row.Finished != nil)
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Number < rows[j].Number })
	return rows
}

// DetailsFor returns the lines of one order with the same precedence as
// BuildMergedView.
func DetailsFor(orderNumber int64, sessionDetails, persistedDetails []domain.DetailLine) []domain.DetailLine {
	var lines []domain.DetailLine
	for _, line := range sessionDetails {
		if line.OrderNumber == orderNumber {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 {
		return lines
	}
	for _, line := range persistedDetails {
		if line.OrderNumber == orderNumber {
			lines = append(lines, line)
		}
	}
	return lines
}

func parseTime(s string, loc *time.Location) *time.Time {
	t, ok := domain.ParseTimestamp(s, loc)
	if !ok {
		return nil
	}
	return &t
}
