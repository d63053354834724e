package table

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp csv: %v", err)
	}
	return path
}

func TestLoadCSV_Basic(t *testing.T) {
	path := writeTempCSV(t, "title,abstract\nPaper A,First abstract\nPaper B,Second abstract\n")

	tbl, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}

	headers := tbl.Headers()
	if len(headers) != 2 || headers[0] != "title" || headers[1] != "abstract" {
		t.Errorf("Expected headers [title abstract], got %v", headers)
	}
	if tbl.Len() != 2 {
		t.Errorf("Expected 2 rows, got %d", tbl.Len())
	}

	val, ok := tbl.Get(1, "abstract")
	if !ok || val != "Second abstract" {
		t.Errorf("Expected %q, got %q (ok=%v)", "Second abstract", val, ok)
	}
}

func TestLoadCSV_DuplicateHeaderRejected(t *testing.T) {
	path := writeTempCSV(t, "title,title\na,b\n")

	if _, err := LoadCSV(path); err == nil {
		t.Error("Expected an error for duplicate headers")
	}
}

func TestLoadCSV_RaggedRowsPadded(t *testing.T) {
	path := writeTempCSV(t, "a,b,c\n1,2,3\n4\n")

	tbl, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}

	val, ok := tbl.Get(1, "c")
	if !ok || val != "" {
		t.Errorf("Expected a padded empty cell, got %q (ok=%v)", val, ok)
	}
}

func TestCSVTable_SetAndGet(t *testing.T) {
	tbl, err := NewCSVTable([]string{"a", "b"}, [][]string{{"1", "2"}})
	if err != nil {
		t.Fatalf("NewCSVTable failed: %v", err)
	}

	if err := tbl.Set(0, "b", "updated"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if val, _ := tbl.Get(0, "b"); val != "updated" {
		t.Errorf("Expected %q, got %q", "updated", val)
	}

	if err := tbl.Set(0, "missing", "x"); err == nil {
		t.Error("Expected an error for an unknown column")
	}
	if err := tbl.Set(5, "a", "x"); err == nil {
		t.Error("Expected an error for an out-of-range row")
	}
}

func TestCSVTable_EnsureColumn(t *testing.T) {
	tbl, err := NewCSVTable([]string{"a"}, [][]string{{"1"}, {"2"}})
	if err != nil {
		t.Fatalf("NewCSVTable failed: %v", err)
	}

	tbl.EnsureColumn("a_verified")
	tbl.EnsureColumn("a_verified") // idempotent

	headers := tbl.Headers()
	if len(headers) != 2 {
		t.Fatalf("Expected 2 headers, got %v", headers)
	}
	for i := 0; i < tbl.Len(); i++ {
		if val, ok := tbl.Get(i, "a_verified"); !ok || val != "" {
			t.Errorf("Row %d: expected an empty cell, got %q (ok=%v)", i, val, ok)
		}
	}
}

func TestCSVTable_SaveRoundTrip(t *testing.T) {
	tbl, err := NewCSVTable([]string{"title", "note"}, [][]string{
		{"Paper A", "has, a comma"},
		{"Paper B", "has \"quotes\" inside"},
	})
	if err != nil {
		t.Fatalf("NewCSVTable failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := tbl.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("Expected 2 rows, got %d", loaded.Len())
	}
	if val, _ := loaded.Get(0, "note"); val != "has, a comma" {
		t.Errorf("Expected %q, got %q", "has, a comma", val)
	}
	if val, _ := loaded.Get(1, "note"); val != "has \"quotes\" inside" {
		t.Errorf("Expected %q, got %q", "has \"quotes\" inside", val)
	}
}

func TestOutputPath(t *testing.T) {
	out := OutputPath("/data/papers.csv", "verified")

	if !strings.HasPrefix(out, "/data/papers_verified_") {
		t.Errorf("Expected a papers_verified_ prefix, got %q", out)
	}
	if !strings.HasSuffix(out, ".csv") {
		t.Errorf("Expected a .csv suffix, got %q", out)
	}
}

func TestVerifiedFieldName(t *testing.T) {
	if got := VerifiedFieldName("summary"); got != "summary_verified" {
		t.Errorf("Expected %q, got %q", "summary_verified", got)
	}
}
