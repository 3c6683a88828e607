package security

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestValidateVaultName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"plain", "personal", true},
		{"with dash and digits", "work-2024", true},
		{"with extension", "personal.vault", true},
		{"unicode", "geheimnisse-ä", true},
		{"empty", "", false},
		{"slash", "a/b", false},
		{"backslash", `a\b`, false},
		{"dot dot", "..", false},
		{"hidden", ".hidden", false},
		{"control char", "bad\x01name", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVaultName(tt.input)
			if tt.ok && err != nil {
				t.Errorf("ValidateVaultName(%q) unexpected error: %v", tt.input, err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidName) {
				t.Errorf("ValidateVaultName(%q) = %v, want ErrInvalidName", tt.input, err)
			}
		})
	}
}

func TestResolveVaultPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vaults")

	got, err := ResolveVaultPath(dir, "personal")
	if err != nil {
		t.Fatalf("ResolveVaultPath failed: %v", err)
	}
	if want := filepath.Join(dir, "personal.vault"); got != want {
		t.Errorf("ResolveVaultPath = %q, want %q", got, want)
	}

	got, err = ResolveVaultPath(dir, "work.vault")
	if err != nil {
		t.Fatalf("ResolveVaultPath failed: %v", err)
	}
	if want := filepath.Join(dir, "work.vault"); got != want {
		t.Errorf("ResolveVaultPath = %q, want %q", got, want)
	}

	if _, err := ResolveVaultPath(dir, "../escape"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName, got %v", err)
	}
}
