package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"osdashboard/internal/report"
)

const SheetName = "OS"

const displayTime = "02/01/2006 15:04"

var Columns = []string{
	"OS", "DATA ABERTURA", "PLACA", "MARCA", "MODELO", "HODÔMETRO",
	"TÍTULO MANUTENÇÃO", "TIPO MANUT.", "STATUS", "SITUAÇÃO",
	"MOTORISTA", "MECÂNICO", "FORNECEDOR", "INÍCIO", "FIM", "VALOR TOTAL",
}

// Workbook renders the merged view as a single-sheet workbook. The caller
// closes the returned file.
func Workbook(rows []report.MergedRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, err
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	lastCol, err := excelize.ColumnNumberToName(len(Columns))
	if err != nil {
		f.Close()
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", style); err != nil {
		f.Close()
		return nil, err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		values := []interface{}{
			row.Number,
			formatTime(row.Created),
			row.Plate,
			row.Brand,
			row.Model,
			row.Odometer,
			row.Title,
			row.Type,
			row.Status,
			row.Situation.Label(),
			row.Driver,
			row.Mechanic,
			row.Supplier,
			formatTime(row.Started),
			formatTime(row.Finished),
			row.TotalValue,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := f.SetColWidth(SheetName, "A", lastCol, 18); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func Write(w io.Writer, rows []report.MergedRow) error {
	f, err := Workbook(rows)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()
	return f.Write(w)
}

// SaveToDir writes os-<timestamp>.xlsx into dir and returns its path.
func SaveToDir(dir string, rows []report.MergedRow, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := Workbook(rows)
	if err != nil {
		return "", fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()

	path := filepath.Join(dir, "os-"+now.Format("20060102-150405")+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(displayTime)
}
