package export

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ironsheep/red-numbers/internal/batch"
	"github.com/ironsheep/red-numbers/internal/errors"
)

var sampleRows = []batch.Row{
	{File: "HOJA_01", Number: "101", MotorCode: "1.5/B38A15P"},
	{File: "HOJA_01", Number: "202", MotorCode: "1.5/B38A15P"},
	{File: "HOJA_02", Number: "101", MotorCode: ""},
	{File: "HOJA_03", Number: "4521", MotorCode: "1.6/EP6FADTXHPD-5GQ-5G06"},
}

func readSheet(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("sheets = %v, want [%s]", sheets, SheetName)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	for i, r := range rows {
		for len(r) > 0 && r[len(r)-1] == "" {
			r = r[:len(r)-1]
		}
		rows[i] = r
	}
	return rows
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := WriteXLSX(path, sampleRows); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	got := readSheet(t, path)
	// trailing empty cells are trimmed by readSheet
	want := [][]string{
		{"Archivo", "Numero", "Motor"},
		{"HOJA_01", "101", "1.5/B38A15P"},
		{"", "202", "1.5/B38A15P"},
		{"HOJA_02", "101"},
		{"HOJA_03", "4521", "1.6/EP6FADTXHPD-5GQ-5G06"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sheet rows =\n%q\nwant\n%q", got, want)
	}
}

func TestWriteXLSX_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := WriteXLSX(path, nil); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	if got := readSheet(t, path); len(got) != 1 {
		t.Errorf("expected only the header row, got %q", got)
	}
}

func TestGroupRows(t *testing.T) {
	got := groupRows(sampleRows)
	files := make([]string, len(got))
	for i, r := range got {
		files[i] = r.File
	}
	if want := []string{"HOJA_01", "", "HOJA_02", "HOJA_03"}; !reflect.DeepEqual(files, want) {
		t.Errorf("files = %q, want %q", files, want)
	}
	if sampleRows[1].File != "HOJA_01" {
		t.Error("groupRows must not modify its input")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRows[:3]); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	want := "Archivo,Numero,Motor\n" +
		"HOJA_01,101,1.5/B38A15P\n" +
		"HOJA_01,202,1.5/B38A15P\n" +
		"HOJA_02,101,\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWrite_ChoosesFormatByExtension(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "nested", "rows.CSV")
	if err := Write(csvPath, sampleRows); err != nil {
		t.Fatalf("Write csv: %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "Archivo,Numero,Motor\n") {
		t.Errorf("unexpected csv content %q", data)
	}

	xlsxPath := filepath.Join(dir, "rows.xlsx")
	if err := Write(xlsxPath, sampleRows); err != nil {
		t.Fatalf("Write xlsx: %v", err)
	}
	if rows := readSheet(t, xlsxPath); len(rows) != len(sampleRows)+1 {
		t.Errorf("got %d sheet rows", len(rows))
	}
}

func TestWrite_FailureIsClassified(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := Write(filepath.Join(blocker, "out.xlsx"), sampleRows)
	if !errors.HasCode(err, errors.ErrorExportFailed) {
		t.Errorf("expected EXPORT_FAILED, got %v", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		dir, name, want string
	}{
		{"out", "", filepath.Join("out", DefaultFileName)},
		{"out", "report", filepath.Join("out", "report.xlsx")},
		{"out", "report.csv", filepath.Join("out", "report.csv")},
		{"", "report.xlsx", "report.xlsx"},
		{"out", "/tmp/abs.xlsx", "/tmp/abs.xlsx"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.dir, tt.name); got != tt.want {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.dir, tt.name, got, tt.want)
		}
	}
}
