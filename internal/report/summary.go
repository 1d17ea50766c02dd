package report

import (
	"sort"
	"strings"
	"time"

	"osdashboard/internal/domain"
)

const unspecified = "NÃO INFORMADO"

type Bucket struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// Summary holds the dashboard metrics of a (filtered) merged view.
type Summary struct {
	TotalOrders int      `json:"total_orders"`
	TotalValue  float64  `json:"total_value"`
	BySituation []Bucket `json:"by_situation"`
	ByType      []Bucket `json:"by_type"`
	ByPlate     []Bucket `json:"by_plate"`
}

// Summarize aggregates rows. BySituation lists every situation in
// classification order, zero counts included; the other groupings are sorted
// by value, highest first.
func Summarize(rows []MergedRow) Summary {
	s := Summary{TotalOrders: len(rows)}

	situations := make(map[domain.Situation]*Bucket, len(domain.Situations))
	for _, sit := range domain.Situations {
		situations[sit] = &Bucket{Key: sit.Label()}
	}
	types := map[string]*Bucket{}
	plates := map[string]*Bucket{}

	for _, row := range rows {
		s.TotalValue += row.TotalValue
		if b, ok := situations[row.Situation]; ok {
			b.Count++
			b.Value += row.TotalValue
		}
		accumulate(types, row.Type, row.TotalValue)
		accumulate(plates, row.Plate, row.TotalValue)
	}

	for _, sit := range domain.Situations {
		s.BySituation = append(s.BySituation, *situations[sit])
	}
	s.ByType = rank(types)
	s.ByPlate = rank(plates)
	return s
}

func accumulate(buckets map[string]*Bucket, key string, value float64) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = unspecified
	}
	b, ok := buckets[key]
	if !ok {
		b = &Bucket{Key: key}
		buckets[key] = b
	}
	b.Count++
	b.Value += value
}

func rank(buckets map[string]*Bucket) []Bucket {
	out := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// InProgressRow is one line of the "OS em Andamento" table.
type InProgressRow struct {
	Number   int64      `json:"numeroos"`
	Plate    string     `json:"placaequipamento"`
	Brand    string     `json:"marcaequipamento"`
	OpenedAt *time.Time `json:"datahoraos,omitempty"`
	Title    string     `json:"titulomanutencao"`
	Driver   string     `json:"motoristaresponsavel"`
	Mechanic string     `json:"mecanicoresponsavel"`
	Type     string     `json:"tipomanutencao"`
	DaysOpen int        `json:"tempo_dias"`
}

// InProgress lists rows that have started but not finished, newest first.
// DaysOpen counts whole days from opening to the start of today, never
// negative.
func InProgress(rows []MergedRow, today time.Time) []InProgressRow {
	var out []InProgressRow
	for _, row := range rows {
		if row.Started == nil || row.Finished != nil {
			continue
		}
		days := 0
		if row.Created != nil {
			days = daysOpen(*row.Created, today)
		}
		out = append(out, InProgressRow{
			Number:   row.Number,
			Plate:    row.Plate,
			Brand:    row.Brand,
			OpenedAt: row.Created,
			Title:    row.Title,
			Driver:   row.Driver,
			Mechanic: row.Mechanic,
			Type:     row.Type,
			DaysOpen: days,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].OpenedAt, out[j].OpenedAt
		switch {
		case a == nil && b == nil:
			return out[i].Number > out[j].Number
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		default:
			return out[i].Number > out[j].Number
		}
	})
	return out
}

// daysOpen counts calendar days in today's location, so a DST shift between
// the two dates does not lose a day. An opening after midnight of its own day
// has not completed that day yet.
func daysOpen(created, today time.Time) int {
	created = created.In(today.Location())
	days := civilDay(today) - civilDay(created)
	y, m, d := created.Date()
	if created.After(time.Date(y, m, d, 0, 0, 0, 0, created.Location())) {
		days--
	}
	if days < 0 {
		return 0
	}
	return days
}

func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
