package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTypedGetters(t *testing.T) {
	t.Setenv("BB_INT", "45")
	t.Setenv("BB_BAD_INT", "abc")
	t.Setenv("BB_DURATION", "90m")
	t.Setenv("BB_BOOL", "yes")
	t.Setenv("BB_LIST", " a, ,b ")

	n, err := Int("BB_INT", 30, 5, 120)
	if err != nil || n != 45 {
		t.Fatalf("Int: got %d, %v", n, err)
	}
	if _, err := Int("BB_BAD_INT", 30, 5, 120); err == nil {
		t.Fatal("expected error for non-numeric value")
	}
	if n, err := Int("BB_UNSET_INT", 30, 5, 120); err != nil || n != 30 {
		t.Fatalf("Int fallback: got %d, %v", n, err)
	}
	d, err := Duration("BB_DURATION", time.Hour)
	if err != nil || d != 90*time.Minute {
		t.Fatalf("Duration: got %s, %v", d, err)
	}
	if !Bool("BB_BOOL", false) {
		t.Fatal("expected Bool to be true")
	}
	if !Bool("BB_UNSET_BOOL", true) {
		t.Fatal("expected Bool fallback")
	}
	list := List("BB_LIST", "")
	if len(list) != 2 || list[0] != "a" || list[1] != "b" {
		t.Fatalf("List: got %v", list)
	}
}

func TestPort(t *testing.T) {
	t.Setenv("BB_PORT", "70000")
	if _, err := Port("BB_PORT", "8080"); err == nil {
		t.Fatal("expected error for out of range port")
	}
	if p, err := Port("BB_UNSET_PORT", "8083"); err != nil || p != "8083" {
		t.Fatalf("Port fallback: got %q, %v", p, err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("BB_FROM_FILE=hello\nBB_PRESET=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("BB_PRESET", "process")
	t.Setenv("BB_FROM_FILE", "")
	os.Unsetenv("BB_FROM_FILE")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("BB_FROM_FILE"); got != "hello" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("BB_PRESET"); got != "process" {
		t.Fatalf("expected process env to win, got %q", got)
	}
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}
