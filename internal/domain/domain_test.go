package domain

import (
	"testing"
	"time"
)

func TestQualifies(t *testing.T) {
	tests := []struct {
		name string
		wo   WorkOrder
		want bool
	}{
		{"finalizada with both dates", WorkOrder{Status: "FINALIZADA", StartedAt: "2024-01-01", FinishedAt: "2024-01-05"}, true},
		{"status normalized", WorkOrder{Status: "  finalizada ", StartedAt: "2024-01-01", FinishedAt: "2024-01-05"}, true},
		{"whitespace finish", WorkOrder{Status: "FINALIZADA", StartedAt: "2024-01-01", FinishedAt: "   "}, false},
		{"missing start", WorkOrder{Status: "FINALIZADA", FinishedAt: "2024-01-05"}, false},
		{"open order", WorkOrder{Status: "ABERTA", StartedAt: "2024-02-01"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Qualifies(tt.wo); got != tt.want {
				t.Fatalf("Qualifies() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPartitionKeepsOrder(t *testing.T) {
	orders := []WorkOrder{
		{Number: 1, Status: "FINALIZADA", StartedAt: "a", FinishedAt: "b"},
		{Number: 2, Status: "ABERTA"},
		{Number: 3, Status: "FINALIZADA", StartedAt: "a", FinishedAt: "b"},
	}
	q, rest := Partition(orders)
	if len(q) != 2 || q[0].Number != 1 || q[1].Number != 3 {
		t.Fatalf("unexpected qualifying: %+v", q)
	}
	if len(rest) != 1 || rest[0].Number != 2 {
		t.Fatalf("unexpected transient: %+v", rest)
	}
}

func TestDedupeOrdersLastWins(t *testing.T) {
	orders := []WorkOrder{
		{Number: 7, Status: "ABERTA"},
		{Number: 8, Status: "ABERTA"},
		{Number: 7, Status: "FINALIZADA", StartedAt: "a", FinishedAt: "b"},
	}
	got := DedupeOrders(orders)
	if len(got) != 2 || got[0].Number != 7 || got[1].Number != 8 {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].Status != "FINALIZADA" {
		t.Fatalf("last occurrence should win, got %+v", got[0])
	}
	if q, _ := Partition(got); len(q) != 1 {
		t.Fatalf("expected one qualifying order, got %+v", q)
	}
}

func TestClassifyPrecedence(t *testing.T) {
	tests := []struct {
		name      string
		total     float64
		status    string
		hasStart  bool
		hasFinish bool
		want      Situation
	}{
		{"valorized and finalized", 250, "FINALIZADA", true, true, SituationValorizadoFinalizado},
		{"valorized finalized without start", 10, " finalizada", false, true, SituationValorizadoFinalizado},
		{"in progress", 0, "ABERTA", true, false, SituationAndamento},
		{"in progress wins over executed", 100, "ABERTA", true, false, SituationAndamento},
		{"executed", 100, "ABERTA", false, false, SituationExecutado},
		{"finalized without value", 0, "FINALIZADA", true, true, SituationFinalizada},
		{"blank", 0, "", false, false, SituationEmBranco},
		{"other", 0, "CANCELADA", true, true, SituationOutro},
		{"finish only not finalized", 50, "ABERTA", false, true, SituationOutro},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.total, tt.status, tt.hasStart, tt.hasFinish)
			if got != tt.want {
				t.Fatalf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyIsExhaustive(t *testing.T) {
	known := make(map[Situation]bool, len(Situations))
	for _, s := range Situations {
		known[s] = true
	}
	for _, total := range []float64{-1, 0, 0.01, 500} {
		for _, status := range []string{"", "FINALIZADA", "finalizada ", "ABERTA"} {
			for _, hasStart := range []bool{false, true} {
				for _, hasFinish := range []bool{false, true} {
					got := Classify(total, status, hasStart, hasFinish)
					if !known[got] {
						t.Fatalf("Classify(%v, %q, %v, %v) returned unknown %q", total, status, hasStart, hasFinish, got)
					}
				}
			}
		}
	}
}

func TestParseSituation(t *testing.T) {
	if s, ok := ParseSituation("valorizado e finalizado"); !ok || s != SituationValorizadoFinalizado {
		t.Fatalf("label lookup failed: %q %v", s, ok)
	}
	if s, ok := ParseSituation("EM_BRANCO"); !ok || s != SituationEmBranco {
		t.Fatalf("name lookup failed: %q %v", s, ok)
	}
	if _, ok := ParseSituation("nope"); ok {
		t.Fatal("expected unknown situation")
	}
}

func TestParseNumber(t *testing.T) {
	tests := map[string]float64{
		"":            0,
		"  ":          0,
		"12.5":        12.5,
		"12,5":        12.5,
		"1.234,56":    1234.56,
		"1,234.56":    0,
		"1.234.567,8": 1234567.8,
		"R$ 10,00":    10,
		"abc":         0,
		"NaN":         0,
		"Inf":         0,
		"-3":          -3,
		" 250.00 ":    250,
	}
	for in, want := range tests {
		if got := ParseNumber(in); got != want {
			t.Errorf("ParseNumber(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2024-01-05", true, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"2024-01-05 13:45:10", true, time.Date(2024, 1, 5, 13, 45, 10, 0, time.UTC)},
		{"2024-01-05T13:45:10", true, time.Date(2024, 1, 5, 13, 45, 10, 0, time.UTC)},
		{"2024-01-05T13:45:10Z", true, time.Date(2024, 1, 5, 13, 45, 10, 0, time.UTC)},
		{"05/01/2024 08:00", true, time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)},
		{"", false, time.Time{}},
		{"  ", false, time.Time{}},
		{"null", false, time.Time{}},
		{"not a date", false, time.Time{}},
	}
	for _, c := range cases {
		got, ok := ParseTimestamp(c.in, time.UTC)
		if ok != c.ok {
			t.Errorf("ParseTimestamp(%q) ok = %v, want %v", c.in, ok, c.ok)
			continue
		}
		if ok && !got.Equal(c.want) {
			t.Errorf("ParseTimestamp(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}
