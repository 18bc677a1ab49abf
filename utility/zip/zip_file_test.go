package zip

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestZipFiles(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, `report.json`)
	sheet := filepath.Join(dir, `report.xlsx`)
	_ = os.WriteFile(report, []byte(`{"run_id":"x"}`), 0644)
	_ = os.WriteFile(sheet, []byte(`not really a spreadsheet`), 0644)
	target, size, err := ZipFiles([]string{report, sheet})
	if err != nil {
		t.Fatal(err)
	}
	if target != filepath.Join(dir, `report.zip`) || size == 0 {
		t.Error(target, size)
	}
	r, err := zip.OpenReader(target)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if len(r.File) != 2 || r.File[0].Name != `report.json` || r.File[1].Name != `report.xlsx` {
		t.Error(r.File)
	}
}

func TestZipFiles_Errors(t *testing.T) {
	_, _, err := ZipFiles(nil)
	if err == nil {
		t.Error("expected an error without files")
	}
	dir := t.TempDir()
	_, _, err = ZipFiles([]string{filepath.Join(dir, `missing.json`)})
	if err == nil {
		t.Error("expected an error for a missing file")
	}
}
