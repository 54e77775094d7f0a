package staging

import (
	"testing"
)

func TestAddRemoveContains(t *testing.T) {
	a, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	a.Add("a.txt")
	if !a.Contains("a.txt") {
		t.Fatal("expected a.txt to be staged")
	}
	a.Remove("a.txt")
	if a.Contains("a.txt") {
		t.Fatal("expected a.txt to be unstaged")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	a.Add("b.txt")
	a.Add("a.txt")
	if err := a.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.Len() != 2 || !reloaded.Contains("a.txt") || !reloaded.Contains("b.txt") {
		t.Fatalf("reloaded staging area missing entries: %v", reloaded.Paths())
	}
}

func TestClear(t *testing.T) {
	a, _ := Load(t.TempDir())
	a.Add("a.txt")
	a.Clear()
	if a.Len() != 0 {
		t.Fatal("expected empty staging area after Clear")
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	a, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a.Len() != 0 {
		t.Fatal("expected empty staging area for a fresh directory")
	}
}
