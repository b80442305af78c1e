package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInstalledViaHomebrew(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/opt/homebrew/Cellar/termcal/1.2.0/bin/termcal", true},
		{"/usr/local/Cellar/termcal/1.2.0/bin/termcal", true},
		{"/usr/local/bin/termcal", false},
		{"/home/user/go/bin/termcal", false},
	}
	for _, tt := range tests {
		if got := installedViaHomebrew(tt.path); got != tt.want {
			t.Errorf("installedViaHomebrew(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestInstalledViaHomebrewFollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	cellar := filepath.Join(dir, "Cellar", "termcal", "1.2.0", "bin")
	if err := os.MkdirAll(cellar, 0755); err != nil {
		t.Fatalf("MkdirAll error: %v", err)
	}
	target := filepath.Join(cellar, "termcal")
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	link := filepath.Join(dir, "termcal")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if !installedViaHomebrew(link) {
		t.Fatalf("symlink into Cellar should count as Homebrew install")
	}
}
