package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirDefaultsToHomeDotKeyforge(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	want := filepath.Join(home, ".keyforge")
	if dir != want {
		t.Fatalf("Dir() = %q, want %q", dir, want)
	}
}

func TestDirHonorsEnvOverride(t *testing.T) {
	override := "/tmp/custom-keyforge-dir"
	t.Setenv(EnvConfigDir, override)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	if dir != override {
		t.Fatalf("Dir() = %q, want %q", dir, override)
	}
}

func TestLoadFallsBackToDefaultsWithoutConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UserLabel != defaultUserLbl {
		t.Fatalf("expected default user label, got %q", cfg.UserLabel)
	}
	if cfg.Version != defaultVersion {
		t.Fatalf("expected default version, got %d", cfg.Version)
	}
	if cfg.DefaultTOTPDigits != defaultDigits {
		t.Fatalf("expected default totp digits, got %d", cfg.DefaultTOTPDigits)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)

	contents := "user_label: alice\nversion: 2\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UserLabel != "alice" {
		t.Fatalf("expected user_label from file, got %q", cfg.UserLabel)
	}
	if cfg.Version != 2 {
		t.Fatalf("expected version from file, got %d", cfg.Version)
	}
}

func TestLoadFlagOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)

	contents := "user_label: alice\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(map[string]any{"user_label": "bob"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UserLabel != "bob" {
		t.Fatalf("expected flag override to win, got %q", cfg.UserLabel)
	}
}

func TestEditorPrefersVisualThenEditorThenVi(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")
	if got := Editor(); got != "vi" {
		t.Fatalf("expected fallback \"vi\", got %q", got)
	}

	t.Setenv("EDITOR", "nano")
	if got := Editor(); got != "nano" {
		t.Fatalf("expected $EDITOR to win, got %q", got)
	}

	t.Setenv("VISUAL", "emacs")
	if got := Editor(); got != "emacs" {
		t.Fatalf("expected $VISUAL to win over $EDITOR, got %q", got)
	}
}
