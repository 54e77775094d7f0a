package cliapp

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mhalvorsen/anvilvcs/internal/config"
	"github.com/mhalvorsen/anvilvcs/internal/repo"
)

// run executes the command tree with args, capturing stdout/stderr, and
// restores the working directory the test started with.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestInitCreatesRepository(t *testing.T) {
	dir := chdirTemp(t)

	if _, err := run(t, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, repo.MetaDirName)); err != nil {
		t.Fatalf("expected %s to exist: %v", repo.MetaDirName, err)
	}
}

func TestAddCommitStatusLogRoundTrip(t *testing.T) {
	dir := chdirTemp(t)

	if _, err := run(t, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	metaDir := filepath.Join(dir, repo.MetaDirName)
	if err := config.Set(metaDir, "user.name", "Ada", false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := config.Set(metaDir, "user.email", "ada@example.com", false); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := run(t, "add", "a.txt"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "a.txt") {
		t.Fatalf("status output = %q, want it to mention a.txt", out)
	}

	if _, err := run(t, "commit", "add a"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	out, err = run(t, "status")
	if err != nil {
		t.Fatalf("status after commit: %v", err)
	}
	if !strings.Contains(out, "clean") {
		t.Fatalf("status output = %q, want clean", out)
	}

	out, err = run(t, "log")
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if !strings.Contains(out, "add a") {
		t.Fatalf("log output = %q, want it to mention the commit message", out)
	}
}

func TestBranchHeadsCheckout(t *testing.T) {
	dir := chdirTemp(t)

	if _, err := run(t, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	metaDir := filepath.Join(dir, repo.MetaDirName)
	if err := config.Set(metaDir, "user.name", "Ada", false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := config.Set(metaDir, "user.email", "ada@example.com", false); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := run(t, "add", "a.txt"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := run(t, "commit", "first"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if _, err := run(t, "branch", "feature"); err != nil {
		t.Fatalf("branch: %v", err)
	}

	out, err := run(t, "heads")
	if err != nil {
		t.Fatalf("heads: %v", err)
	}
	if !strings.Contains(out, "feature") || !strings.Contains(out, "master") {
		t.Fatalf("heads output = %q, want both master and feature", out)
	}
	if !strings.Contains(out, "* master") {
		t.Fatalf("heads output = %q, want master marked current", out)
	}

	if _, err := run(t, "checkout", "feature"); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	out, err = run(t, "heads")
	if err != nil {
		t.Fatalf("heads after checkout: %v", err)
	}
	if !strings.Contains(out, "* feature") {
		t.Fatalf("heads output = %q, want feature marked current", out)
	}
}

func TestCommitWithoutStagingFails(t *testing.T) {
	chdirTemp(t)

	if _, err := run(t, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, err := run(t, "commit", "nothing to commit"); err == nil {
		t.Fatal("expected commit with empty staging to fail")
	}
}
