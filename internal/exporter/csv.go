package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"cityscope/internal/dataset"
)

// utf8BOM helps Excel recognize the encoding when opening the file
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV streams a dataset table to w as CSV, header row first.
// Cells keep the original text read from the source file.
func WriteCSV(w io.Writer, t *dataset.Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	desc := t.Desc()
	if err := cw.Write(desc.FieldNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(desc.Fields))
	for row := 0; row < t.NumRows(); row++ {
		for i, f := range desc.Fields {
			record[i] = t.Cell(f.Name, row)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
