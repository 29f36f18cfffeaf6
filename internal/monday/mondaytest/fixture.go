// Package mondaytest writes board exports for tests.
package mondaytest

import (
	"encoding/csv"
	"os"
	"testing"

	"github.com/xuri/excelize/v2"
)

// StandardHeaders is the column set of a typical board export.
var StandardHeaders = []string{
	"Name", "Estado", "Tipo Tarea", "Estimación Original", "Puntos Logrados",
	"Fecha Inicio", "Fecha Ready for Production", "Fecha Término", "Sprint", "Sprint Completed?", "Carry over",
}

// WriteWorkbook writes an export the way the board tool does: board title on row 1,
// group title on row 2, headers on row 3 and data below.
func WriteWorkbook(t testing.TB, path string, headers []string, rows [][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if err := f.SetCellValue(sheet, "A1", "Backlog Planning"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue(sheet, "A2", "All Tasks"); err != nil {
		t.Fatal(err)
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A3", &header); err != nil {
		t.Fatal(err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			t.Fatal(err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatal(err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

// WriteCSV writes an export as CSV with the header on the first row.
func WriteCSV(t testing.TB, path string, headers []string, rows [][]string) {
	t.Helper()

	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = file.Close() }()

	w := csv.NewWriter(file)
	if err := w.Write(headers); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatal(err)
	}
}
