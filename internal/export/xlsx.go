package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ironsheep/red-numbers/internal/batch"
)

const (
	// SheetName is the worksheet holding the rows.
	SheetName = "Numeros Rojos"
	// DefaultFileName is used when no output name is given.
	DefaultFileName = "numeros_rojos.xlsx"
)

// Headers are the column titles, in column order.
var Headers = []string{"Archivo", "Numero", "Motor"}

var columnWidths = []float64{28, 14, 32}

// WriteXLSX writes rows to a new workbook at path. The file identifier is
// written only on the first row of each run of rows from the same file.
func WriteXLSX(path string, rows []batch.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, w := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return fmt.Errorf("set width of column %s: %w", col, err)
		}
	}

	for i, r := range groupRows(rows) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{r.File, r.Number, r.MotorCode}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// groupRows blanks the file identifier of every row that continues the
// previous row's file.
func groupRows(rows []batch.Row) []batch.Row {
	out := make([]batch.Row, len(rows))
	prev := ""
	for i, r := range rows {
		out[i] = r
		if i > 0 && r.File == prev {
			out[i].File = ""
		}
		prev = r.File
	}
	return out
}
