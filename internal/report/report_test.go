package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"osdashboard/internal/domain"
	"osdashboard/internal/session"
)

func findRow(t *testing.T, rows []MergedRow, number int64) MergedRow {
	t.Helper()
	for _, r := range rows {
		if r.Number == number {
			return r
		}
	}
	t.Fatalf("order %d not in merged view", number)
	return MergedRow{}
}

func TestBuildMergedViewExamples(t *testing.T) {
	persistedHeaders := []domain.WorkOrder{
		{Number: 100, Status: "FINALIZADA", StartedAt: "2024-01-01", FinishedAt: "2024-01-05"},
	}
	persistedDetails := []domain.DetailLine{
		{OrderNumber: 100, TotalValue: "100"},
		{OrderNumber: 100, TotalValue: "150"},
	}
	sessionHeaders := []domain.WorkOrder{
		{Number: 101, Status: "ABERTA", StartedAt: "2024-02-01"},
		{Number: 102, Status: "ABERTA"},
	}

	rows := BuildMergedView(sessionHeaders, nil, persistedHeaders, persistedDetails, time.UTC)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	r100 := findRow(t, rows, 100)
	if r100.TotalValue != 250 || r100.Situation != domain.SituationValorizadoFinalizado {
		t.Fatalf("order 100: total=%v situation=%s", r100.TotalValue, r100.Situation)
	}
	r101 := findRow(t, rows, 101)
	if r101.TotalValue != 0 || r101.Situation != domain.SituationAndamento {
		t.Fatalf("order 101: total=%v situation=%s", r101.TotalValue, r101.Situation)
	}
	if r102 := findRow(t, rows, 102); r102.Situation != domain.SituationEmBranco {
		t.Fatalf("order 102: situation=%s", r102.Situation)
	}
	if rows[0].Number != 100 || rows[1].Number != 101 || rows[2].Number != 102 {
		t.Fatalf("rows not ordered by number: %d %d %d", rows[0].Number, rows[1].Number, rows[2].Number)
	}
}

func TestBuildMergedViewSessionWins(t *testing.T) {
	persistedHeaders := []domain.WorkOrder{
		{Number: 1, Status: "EXECUTADO", Mechanic: "old"},
		{Number: 2, Status: "FINALIZADA"},
	}
	sessionHeaders := []domain.WorkOrder{
		{Number: 1, Status: "EXECUTADO", Mechanic: "new"},
		{Number: 3},
	}
	persistedDetails := []domain.DetailLine{
		{OrderNumber: 1, TotalValue: "999"},
		{OrderNumber: 2, TotalValue: "10"},
	}
	sessionDetails := []domain.DetailLine{
		{OrderNumber: 1, TotalValue: "5"},
		{OrderNumber: 1, TotalValue: "7"},
	}

	rows := BuildMergedView(sessionHeaders, sessionDetails, persistedHeaders, persistedDetails, time.UTC)
	if len(rows) != 3 {
		t.Fatalf("expected one row per distinct header, got %d", len(rows))
	}
	r1 := findRow(t, rows, 1)
	if r1.Mechanic != "new" {
		t.Fatalf("session header should win, got mechanic %q", r1.Mechanic)
	}
	if r1.TotalValue != 12 {
		t.Fatalf("persisted lines of an order with session lines must be ignored, total=%v", r1.TotalValue)
	}
	if r2 := findRow(t, rows, 2); r2.TotalValue != 10 {
		t.Fatalf("order 2 total=%v, want 10", r2.TotalValue)
	}
}

func TestBuildMergedViewCoercion(t *testing.T) {
	headers := []domain.WorkOrder{
		{Number: 7, Status: "finalizada ", StartedAt: "not a date", FinishedAt: "  "},
		{Number: 8, CreatedAt: "15/03/2024 08:30", StartedAt: "2024-03-15T09:00:00", FinishedAt: "2024-03-16 10:00:00"},
	}
	details := []domain.DetailLine{
		{OrderNumber: 7, TotalValue: "1.234,56"},
		{OrderNumber: 7, TotalValue: "abc"},
		{OrderNumber: 7, TotalValue: ""},
		{OrderNumber: 99, TotalValue: "10"},
	}
	rows := BuildMergedView(headers, details, nil, nil, time.UTC)
	if len(rows) != 2 {
		t.Fatalf("detail lines without header must not add rows, got %d", len(rows))
	}

	r7 := findRow(t, rows, 7)
	if r7.TotalValue != 1234.56 {
		t.Fatalf("total = %v, want 1234.56", r7.TotalValue)
	}
	if r7.Started != nil || r7.Finished != nil {
		t.Fatal("unparsable timestamps must be absent")
	}
	if r7.Situation != domain.SituationExecutado {
		t.Fatalf("situation = %s, want EXECUTADO", r7.Situation)
	}

	r8 := findRow(t, rows, 8)
	if r8.Created == nil || r8.Created.Month() != time.March || r8.Created.Hour() != 8 {
		t.Fatalf("unexpected created: %v", r8.Created)
	}
	if r8.Situation != domain.SituationOutro {
		t.Fatalf("situation = %s, want OUTRO", r8.Situation)
	}
}

func TestFilterApply(t *testing.T) {
	rows := BuildMergedView([]domain.WorkOrder{
		{Number: 1, CreatedAt: "2023-05-01", Plate: "ABC1234", Brand: "Volvo", Type: "Preventiva", StartedAt: "2023-05-01"},
		{Number: 2, CreatedAt: "2024-02-01", Plate: "XYZ9876", Brand: "Scania", Type: "Corretiva", Mechanic: "Ana"},
		{Number: 3, CreatedAt: "2024-06-01", Plate: "abc1234", Brand: "Volvo", Type: "Corretiva", Supplier: "Loja"},
		{Number: 4, Plate: "ABC1234"},
	}, nil, nil, nil, time.UTC)

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"no filter", Filter{}, []int64{1, 2, 3, 4}},
		{"todos", Filter{Plate: All, Brand: "todos", Situation: All}, []int64{1, 2, 3, 4}},
		{"year", Filter{Year: 2024}, []int64{2, 3}},
		{"plate case-insensitive", Filter{Plate: "ABC1234"}, []int64{1, 3, 4}},
		{"brand and type", Filter{Brand: "volvo", Type: "Corretiva"}, []int64{3}},
		{"situation label", Filter{Situation: "EM BRANCO"}, []int64{2, 3, 4}},
		{"situation constant", Filter{Situation: "ANDAMENTO"}, []int64{1}},
		{"unknown situation", Filter{Situation: "whatever"}, nil},
		{"mechanic", Filter{Mechanic: "ana"}, []int64{2}},
		{"supplier", Filter{Supplier: "Loja"}, []int64{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(rows)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d rows, want %v", len(got), tt.want)
			}
			for i, n := range tt.want {
				if got[i].Number != n {
					t.Fatalf("row %d = %d, want %d", i, got[i].Number, n)
				}
			}
		})
	}
}

func TestFilterOptions(t *testing.T) {
	rows := BuildMergedView([]domain.WorkOrder{
		{Number: 1, CreatedAt: "2023-05-01", Plate: "B", Brand: "Volvo"},
		{Number: 2, CreatedAt: "2024-02-01", Plate: "A", Brand: "Volvo"},
		{Number: 3, Plate: " "},
	}, nil, nil, nil, time.UTC)

	opts := FilterOptions(rows)
	if len(opts.Years) != 3 || opts.Years[0] != All || opts.Years[1] != "2024" || opts.Years[2] != "2023" {
		t.Fatalf("unexpected years: %v", opts.Years)
	}
	if len(opts.Plates) != 3 || opts.Plates[1] != "A" || opts.Plates[2] != "B" {
		t.Fatalf("unexpected plates: %v", opts.Plates)
	}
	if len(opts.Brands) != 2 {
		t.Fatalf("unexpected brands: %v", opts.Brands)
	}
	if len(opts.Situations) != len(domain.Situations)+1 || opts.Situations[1] != "VALORIZADO E FINALIZADO" {
		t.Fatalf("unexpected situations: %v", opts.Situations)
	}
}

func TestSummarize(t *testing.T) {
	rows := []MergedRow{
		{WorkOrder: domain.WorkOrder{Number: 1, Type: "Corretiva", Plate: "A"}, TotalValue: 100, Situation: domain.SituationValorizadoFinalizado},
		{WorkOrder: domain.WorkOrder{Number: 2, Type: "Corretiva", Plate: "B"}, TotalValue: 50, Situation: domain.SituationExecutado},
		{WorkOrder: domain.WorkOrder{Number: 3, Type: "Preventiva", Plate: "A"}, TotalValue: 300, Situation: domain.SituationValorizadoFinalizado},
		{WorkOrder: domain.WorkOrder{Number: 4}, Situation: domain.SituationEmBranco},
	}
	s := Summarize(rows)
	if s.TotalOrders != 4 || s.TotalValue != 450 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if len(s.BySituation) != len(domain.Situations) {
		t.Fatalf("expected every situation listed, got %d", len(s.BySituation))
	}
	if b := s.BySituation[0]; b.Key != "VALORIZADO E FINALIZADO" || b.Count != 2 || b.Value != 400 {
		t.Fatalf("unexpected first bucket: %+v", b)
	}
	if b := s.BySituation[1]; b.Count != 0 {
		t.Fatalf("ANDAMENTO should be empty: %+v", b)
	}
	if len(s.ByType) != 3 || s.ByType[0].Key != "Preventiva" || s.ByType[1].Key != "Corretiva" || s.ByType[2].Key != unspecified {
		t.Fatalf("unexpected type ranking: %+v", s.ByType)
	}
	if s.ByPlate[0].Key != "A" || s.ByPlate[0].Value != 400 || s.ByPlate[0].Count != 2 {
		t.Fatalf("unexpected plate ranking: %+v", s.ByPlate)
	}
}

func TestInProgress(t *testing.T) {
	rows := BuildMergedView([]domain.WorkOrder{
		{Number: 1, CreatedAt: "2024-05-20 15:00:00", StartedAt: "2024-05-20"},
		{Number: 2, CreatedAt: "2024-05-30 23:00:00", StartedAt: "2024-05-31"},
		{Number: 3, CreatedAt: "2024-06-02", StartedAt: "2024-06-02"},
		{Number: 4, StartedAt: "2024-05-01"},
		{Number: 5, CreatedAt: "2024-05-01", StartedAt: "2024-05-01", FinishedAt: "2024-05-02"},
		{Number: 6, CreatedAt: "2024-05-01"},
	}, nil, nil, nil, time.UTC)

	today := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
	got := InProgress(rows, today)
	if len(got) != 4 {
		t.Fatalf("expected 4 in-progress rows, got %+v", got)
	}
	wantOrder := []int64{3, 2, 1, 4}
	wantDays := []int{0, 1, 11, 0}
	for i := range wantOrder {
		if got[i].Number != wantOrder[i] || got[i].DaysOpen != wantDays[i] {
			t.Fatalf("row %d = {%d, %d days}, want {%d, %d days}",
				i, got[i].Number, got[i].DaysOpen, wantOrder[i], wantDays[i])
		}
	}
}

func TestInProgressDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	rows := BuildMergedView([]domain.WorkOrder{
		{Number: 1, CreatedAt: "2024-03-01", StartedAt: "2024-03-01"},
		{Number: 2, CreatedAt: "2024-03-09 10:00:00", StartedAt: "2024-03-09"},
	}, nil, nil, nil, loc)

	today := time.Date(2024, 3, 20, 9, 0, 0, 0, loc)
	got := InProgress(rows, today)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %+v", got)
	}
	if got[0].Number != 2 || got[0].DaysOpen != 10 {
		t.Fatalf("order 2 = %d days, want 10", got[0].DaysOpen)
	}
	if got[1].Number != 1 || got[1].DaysOpen != 19 {
		t.Fatalf("order 1 = %d days, want 19", got[1].DaysOpen)
	}
}

type fakeReader struct {
	headers []domain.WorkOrder
	details []domain.DetailLine
	err     error
}

func (f fakeReader) ReadAllWorkOrders(ctx context.Context) ([]domain.WorkOrder, error) {
	return f.headers, f.err
}

func (f fakeReader) ReadAllDetails(ctx context.Context) ([]domain.DetailLine, error) {
	return f.details, f.err
}

func TestServiceNoDataYet(t *testing.T) {
	svc := NewService(session.New(), fakeReader{}, time.UTC)
	if _, err := svc.Rows(context.Background()); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if ErrNoData.Error() != "no data yet" {
		t.Fatalf("unexpected message %q", ErrNoData.Error())
	}
}

func TestServiceServesPersistedDataAfterRestart(t *testing.T) {
	store := fakeReader{
		headers: []domain.WorkOrder{{Number: 100, Status: "FINALIZADA", StartedAt: "2024-01-01", FinishedAt: "2024-01-05"}},
		details: []domain.DetailLine{{OrderNumber: 100, TotalValue: "250"}},
	}
	svc := NewService(session.New(), store, time.UTC)
	rows, err := svc.Rows(context.Background())
	if err != nil {
		t.Fatalf("Rows failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Situation != domain.SituationValorizadoFinalizado {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestServiceMergesSessionSnapshot(t *testing.T) {
	state := session.New()
	state.SetSnapshot(session.Snapshot{
		Headers: []domain.WorkOrder{{Number: 101, Status: "ABERTA", StartedAt: "2024-02-01", Plate: "P1"}},
		Details: []domain.DetailGroup{{OrderNumber: 101, Lines: []domain.DetailLine{{OrderNumber: 101, Material: "Filtro", TotalValue: "40"}}}},
	})
	state.MarkUpdated(time.Now())
	store := fakeReader{
		headers: []domain.WorkOrder{{Number: 100, Status: "FINALIZADA", StartedAt: "2024-01-01", FinishedAt: "2024-01-05", Plate: "P2"}},
		details: []domain.DetailLine{{OrderNumber: 100, Material: "Pneu", TotalValue: "250"}},
	}
	svc := NewService(state, store, time.UTC)
	svc.now = func() time.Time { return time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	summary, err := svc.Summary(ctx, Filter{Plate: "P1"})
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.TotalOrders != 1 || summary.TotalValue != 40 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	inProgress, err := svc.InProgress(ctx)
	if err != nil {
		t.Fatalf("InProgress failed: %v", err)
	}
	if len(inProgress) != 1 || inProgress[0].Number != 101 {
		t.Fatalf("unexpected in-progress rows: %+v", inProgress)
	}

	lines, err := svc.Details(ctx, 100)
	if err != nil {
		t.Fatalf("Details failed: %v", err)
	}
	if len(lines) != 1 || lines[0].Material != "Pneu" {
		t.Fatalf("unexpected details: %+v", lines)
	}
	lines, _ = svc.Details(ctx, 101)
	if len(lines) != 1 || lines[0].Material != "Filtro" {
		t.Fatalf("unexpected session details: %+v", lines)
	}
}

func TestServiceStoreError(t *testing.T) {
	svc := NewService(session.New(), fakeReader{err: errors.New("db locked")}, time.UTC)
	if _, err := svc.Rows(context.Background()); err == nil || errors.Is(err, ErrNoData) {
		t.Fatalf("expected store error, got %v", err)
	}
}
