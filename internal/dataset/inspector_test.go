package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv", "a,b\n1,2\n")
	writeFile(t, dir, "REPORT.CSV", "a,b\n1,2\n")
	writeFile(t, dir, "notes.txt", "not a dataset")
	if err := os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := NewInspector(dir, 5).ListFiles()
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %v, want the two CSV files", files)
	}
	for _, f := range files {
		if !strings.EqualFold(filepath.Ext(f), ".csv") {
			t.Errorf("non-CSV file listed: %s", f)
		}
	}
}

func TestListFilesMissingDir(t *testing.T) {
	files, err := NewInspector(filepath.Join(t.TempDir(), "absent"), 5).ListFiles()
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if files != nil {
		t.Errorf("got %v, want nil for a missing directory", files)
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales.csv",
		"region,amount\nnorth,100\nsouth,250\neast,75\nwest,310\n")

	excerpt, err := NewInspector(dir, 2).Inspect("sales.csv")
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}

	if excerpt.Filename != "sales.csv" {
		t.Errorf("filename = %q", excerpt.Filename)
	}
	if len(excerpt.Columns) != 2 || excerpt.Columns[0] != "region" {
		t.Errorf("columns = %v", excerpt.Columns)
	}
	if excerpt.RowCount != 4 {
		t.Errorf("row count = %d, want 4", excerpt.RowCount)
	}
	if len(excerpt.Sample) != 2 {
		t.Errorf("sample size = %d, want 2", len(excerpt.Sample))
	}
}

func TestInspectMissingFile(t *testing.T) {
	if _, err := NewInspector(t.TempDir(), 5).Inspect("absent.csv"); err == nil {
		t.Error("inspecting a missing file should fail")
	}
}

func TestInspectIgnoresPathTraversal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "safe.csv", "a\n1\n")

	// Base name only: a traversal path resolves inside the dataset dir.
	excerpt, err := NewInspector(dir, 5).Inspect("../../safe.csv")
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if excerpt.Filename != "safe.csv" {
		t.Errorf("filename = %q, want %q", excerpt.Filename, "safe.csv")
	}
}

func TestPromptContext(t *testing.T) {
	e := &Excerpt{
		Filename: "sales.csv",
		Columns:  []string{"region", "amount"},
		RowCount: 4,
		Sample:   [][]string{{"north", "100"}},
	}

	got := e.PromptContext()
	for _, want := range []string{"File: sales.csv", "Columns: region, amount", "Total rows: 4", "north | 100"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt context missing %q:\n%s", want, got)
		}
	}
}
