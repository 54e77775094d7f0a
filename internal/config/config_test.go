package config

import (
	"os"
	"path/filepath"
	"testing"
)

func withFakeHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestSetAndGetRepoValue(t *testing.T) {
	withFakeHome(t)
	metaDir := t.TempDir()

	if err := Set(metaDir, "user.name", "Ada Lovelace", false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := Get(metaDir, "user.name")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "Ada Lovelace" {
		t.Fatalf("Get() = %q, want %q", got, "Ada Lovelace")
	}
}

func TestRepoOverridesGlobal(t *testing.T) {
	withFakeHome(t)
	metaDir := t.TempDir()

	if err := Set(metaDir, "user.name", "Global Name", true); err != nil {
		t.Fatalf("Set global: %v", err)
	}
	if err := Set(metaDir, "user.name", "Repo Name", false); err != nil {
		t.Fatalf("Set repo: %v", err)
	}

	got, err := Get(metaDir, "user.name")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "Repo Name" {
		t.Fatalf("Get() = %q, want repo override %q", got, "Repo Name")
	}
}

func TestAuthorRequiresNameAndEmail(t *testing.T) {
	withFakeHome(t)
	metaDir := t.TempDir()

	if _, err := Author(metaDir); err == nil {
		t.Fatal("expected error when user.name/user.email unset")
	}

	if err := Set(metaDir, "user.name", "Ada", false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Set(metaDir, "user.email", "ada@example.com", false); err != nil {
		t.Fatalf("Set: %v", err)
	}

	author, err := Author(metaDir)
	if err != nil {
		t.Fatalf("Author: %v", err)
	}
	if author != "Ada <ada@example.com>" {
		t.Fatalf("Author() = %q, want %q", author, "Ada <ada@example.com>")
	}
}

func TestSaveRepoCreatesMetaDir(t *testing.T) {
	withFakeHome(t)
	dir := t.TempDir()
	metaDir := filepath.Join(dir, ".my-dvcs")

	if err := Set(metaDir, "core.editor", "vim", false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(metaDir, "config")); err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}
}
