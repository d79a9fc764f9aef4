package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/red-numbers/internal/batch"
)

// WriteCSV writes a header line and one record per row. Unlike the
// spreadsheet, every record carries its file identifier.
func WriteCSV(w io.Writer, rows []batch.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.File, r.Number, r.MotorCode}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes rows as CSV to path.
func WriteCSVFile(path string, rows []batch.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
