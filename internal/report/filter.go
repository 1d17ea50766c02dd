package report

import (
	"sort"
	"strconv"
	"strings"

	"osdashboard/internal/domain"
)

// All is the selector value that disables a filter.
const All = "Todos"

// Filter narrows the merged view. Zero values and All match every row;
// text fields compare case-insensitively after trimming.
type Filter struct {
	Year      int
	Plate     string
	Brand     string
	Type      string
	Situation string
	Mechanic  string
	Driver    string
	Supplier  string
}

func (f Filter) Apply(rows []MergedRow) []MergedRow {
	out := make([]MergedRow, 0, len(rows))
	for _, row := range rows {
		if f.Matches(row) {
			out = append(out, row)
		}
	}
	return out
}

func (f Filter) Matches(row MergedRow) bool {
	if f.Year != 0 && (row.Created == nil || row.Created.Year() != f.Year) {
		return false
	}
	if active(f.Situation) {
		sit, ok := domain.ParseSituation(f.Situation)
		if !ok || row.Situation != sit {
			return false
		}
	}
	return matchText(f.Plate, row.Plate) &&
		matchText(f.Brand, row.Brand) &&
		matchText(f.Type, row.Type) &&
		matchText(f.Mechanic, row.Mechanic) &&
		matchText(f.Driver, row.Driver) &&
		matchText(f.Supplier, row.Supplier)
}

func active(selector string) bool {
	s := strings.TrimSpace(selector)
	return s != "" && !strings.EqualFold(s, All)
}

func matchText(selector, value string) bool {
	if !active(selector) {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(selector), strings.TrimSpace(value))
}

// Options lists the selectable values of each filter, as shown in the
// dashboard sidebar: All first, years newest first, text values sorted.
type Options struct {
	Years      []string `json:"years"`
	Plates     []string `json:"plates"`
	Brands     []string `json:"brands"`
	Types      []string `json:"types"`
	Situations []string `json:"situations"`
	Mechanics  []string `json:"mechanics"`
	Drivers    []string `json:"drivers"`
	Suppliers  []string `json:"suppliers"`
}

func FilterOptions(rows []MergedRow) Options {
	years := map[int]bool{}
	plates, brands, types := map[string]bool{}, map[string]bool{}, map[string]bool{}
	mechanics, drivers, suppliers := map[string]bool{}, map[string]bool{}, map[string]bool{}
	for _, row := range rows {
		if row.Created != nil {
			years[row.Created.Year()] = true
		}
		addValue(plates, row.Plate)
		addValue(brands, row.Brand)
		addValue(types, row.Type)
		addValue(mechanics, row.Mechanic)
		addValue(drivers, row.Driver)
		addValue(suppliers, row.Supplier)
	}

	sortedYears := make([]int, 0, len(years))
	for y := range years {
		sortedYears = append(sortedYears, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sortedYears)))
	yearOptions := []string{All}
	for _, y := range sortedYears {
		yearOptions = append(yearOptions, strconv.Itoa(y))
	}

	situations := []string{All}
	for _, s := range domain.Situations {
		situations = append(situations, s.Label())
	}

	return Options{
		Years:      yearOptions,
		Plates:     withAll(plates),
		Brands:     withAll(brands),
		Types:      withAll(types),
		Situations: situations,
		Mechanics:  withAll(mechanics),
		Drivers:    withAll(drivers),
		Suppliers:  withAll(suppliers),
	}
}

func addValue(set map[string]bool, v string) {
	if v = strings.TrimSpace(v); v != "" {
		set[v] = true
	}
}

func withAll(set map[string]bool) []string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return append([]string{All}, values...)
}
