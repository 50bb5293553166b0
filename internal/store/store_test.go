package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveInput_CreatesJobDir(t *testing.T) {
	w := New(t.TempDir())
	path, err := w.SaveInput("job1", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("SaveInput: %v", err)
	}
	if path != w.InputPath("job1") {
		t.Errorf("path = %q, want %q", path, w.InputPath("job1"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved input: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Errorf("saved content = %q", data)
	}
}

func TestRemoveJob_DeletesEverything(t *testing.T) {
	w := New(t.TempDir())
	if _, err := w.SaveInput("job1", []byte("x")); err != nil {
		t.Fatalf("SaveInput: %v", err)
	}
	if err := os.MkdirAll(w.TextDir("job1"), 0o755); err != nil {
		t.Fatalf("mkdir text: %v", err)
	}

	if err := w.RemoveJob("job1"); err != nil {
		t.Fatalf("RemoveJob: %v", err)
	}
	if _, err := os.Stat(w.JobDir("job1")); !os.IsNotExist(err) {
		t.Errorf("job dir still exists")
	}
}

func TestRemoveJob_RefusesEscapingIDs(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(root, "precious.txt")
	if err := os.WriteFile(outside, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	w := New(root)
	if err := w.RemoveJob("../.."); err == nil {
		t.Fatal("expected error for escaping job id")
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("file outside jobs tree was touched: %v", err)
	}
}

func TestLayout_PathsAreUnderJobDir(t *testing.T) {
	w := New("/data")
	dir := w.JobDir("abc")
	for name, path := range map[string]string{
		"input":  w.InputPath("abc"),
		"text":   w.TextDir("abc"),
		"toc":    w.TOCPath("abc"),
		"output": w.OutputPath("abc"),
	} {
		if filepath.Dir(path) != dir && path != filepath.Join(dir, "text") {
			t.Errorf("%s path %q not under %q", name, path, dir)
		}
	}
}
