// Package export writes batch rows to spreadsheet and CSV files.
package export

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/red-numbers/internal/batch"
	"github.com/ironsheep/red-numbers/internal/errors"
)

// Write writes rows to path, choosing the format from the extension: ".csv"
// writes CSV, anything else an xlsx workbook. Parent directories are created.
// Failures are returned as EXPORT_FAILED errors.
func Write(path string, rows []batch.Row) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewExportFailedError(path, err)
		}
	}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = WriteCSVFile(path, rows)
	default:
		err = WriteXLSX(path, rows)
	}
	if err != nil {
		return errors.NewExportFailedError(path, err)
	}
	return nil
}

// OutputPath resolves the output file: an empty name becomes DefaultFileName
// and a name without extension gets ".xlsx".
func OutputPath(dir, name string) string {
	if name == "" {
		name = DefaultFileName
	}
	if filepath.Ext(name) == "" {
		name += ".xlsx"
	}
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
