package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"osdashboard/internal/domain"
	"osdashboard/internal/report"
)

func sampleRows() []report.MergedRow {
	return report.BuildMergedView([]domain.WorkOrder{
		{Number: 100, CreatedAt: "2024-01-01 08:00:00", Status: "FINALIZADA", StartedAt: "2024-01-01", FinishedAt: "2024-01-05", Plate: "ABC1D23"},
		{Number: 101, Status: "ABERTA", StartedAt: "2024-02-01"},
	}, []domain.DetailLine{{OrderNumber: 100, TotalValue: "250"}}, nil, nil, time.UTC)
}

func TestWriteProducesReadableWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleRows()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "OS" || rows[0][len(Columns)-1] != "VALOR TOTAL" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	first := rows[1]
	if first[0] != "100" || first[1] != "01/01/2024 08:00" || first[2] != "ABC1D23" {
		t.Fatalf("unexpected first row: %v", first)
	}
	if first[9] != "VALORIZADO E FINALIZADO" || first[len(Columns)-1] != "250" {
		t.Fatalf("unexpected situation/value: %v", first)
	}
	if rows[2][9] != "ANDAMENTO" {
		t.Fatalf("unexpected second row: %v", rows[2])
	}
}

func TestSaveToDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	now := time.Date(2024, 6, 1, 15, 4, 5, 0, time.UTC)

	path, err := SaveToDir(dir, sampleRows(), now)
	if err != nil {
		t.Fatalf("SaveToDir failed: %v", err)
	}
	if filepath.Base(path) != "os-20240601-150405.xlsx" {
		t.Fatalf("unexpected file name: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not written: %v", err)
	}
}

func TestWorkbookWithNoRows(t *testing.T) {
	f, err := Workbook(nil)
	if err != nil {
		t.Fatalf("Workbook failed: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}
