package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSourceURL(t *testing.T) {
	dir := t.TempDir()

	url, err := fileSourceURL(dir)
	if err != nil {
		t.Fatalf("fileSourceURL: %v", err)
	}
	if !strings.HasPrefix(url, "file://") || !strings.HasSuffix(url, filepath.ToSlash(dir)) {
		t.Fatalf("unexpected source url %q", url)
	}
}

func TestFileSourceURLMissingDir(t *testing.T) {
	if _, err := fileSourceURL(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing directory")
	}

	file := filepath.Join(t.TempDir(), "001.sql")
	if err := os.WriteFile(file, []byte("SELECT 1;"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := fileSourceURL(file); err == nil {
		t.Fatalf("expected error for plain file")
	}
}
