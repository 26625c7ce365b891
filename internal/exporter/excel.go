package exporter

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"cityscope/internal/dataset"
)

// WriteExcel renders a dataset table as a single-sheet XLSX workbook.
// Numeric columns keep their numeric type so spreadsheet formulas work
// on the exported data.
func WriteExcel(w io.Writer, t *dataset.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	desc := t.Desc()
	sheet := f.GetSheetName(0)
	if desc.Title != "" {
		if err := f.SetSheetName(sheet, desc.Title); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
		sheet = desc.Title
	}

	header := make([]interface{}, len(desc.Fields))
	for i, field := range desc.Fields {
		header[i] = field.Name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]interface{}, len(desc.Fields))
	for r := 0; r < t.NumRows(); r++ {
		for i, field := range desc.Fields {
			switch field.Kind {
			case dataset.KindNumber:
				v := t.Numbers(field.Name)[r]
				if math.IsNaN(v) {
					row[i] = ""
				} else {
					row[i] = v
				}
			default:
				row[i] = t.Cell(field.Name, r)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", r, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
