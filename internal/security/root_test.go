package security

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func openTestRoot(t *testing.T) *Root {
	t.Helper()
	r, err := OpenRoot(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open root: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRoot_Clean(t *testing.T) {
	r := openTestRoot(t)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"simple file", "id_rsa", "id_rsa", nil},
		{"file in subdirectory", "certs/tls.pem", "certs/tls.pem", nil},
		{"hidden file", ".env", ".env", nil},
		{"dot slash", "./notes.txt", "notes.txt", nil},
		{"redundant slashes", "a//b///c.txt", "a/b/c.txt", nil},
		{"dot segments", "a/./b/../c.txt", "a/c.txt", nil},

		{"parent directory", "../outside", "", ErrPathEscapes},
		{"nested parent", "a/../../outside", "", ErrPathEscapes},
		{"absolute path", "/etc/passwd", "", ErrAbsolutePath},
		{"empty path", "", "", ErrEmptyPath},
	}

	if runtime.GOOS == "windows" {
		tests = append(tests, struct {
			name    string
			input   string
			want    string
			wantErr error
		}{"absolute path windows", `C:\Windows\System32`, "", ErrAbsolutePath})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Clean(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Clean(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Clean(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRoot_WriteReadStat(t *testing.T) {
	r := openTestRoot(t)

	if err := r.WriteFile("keys/deploy/id_rsa", []byte("secret"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := r.ReadFile("keys/deploy/id_rsa")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "secret" {
		t.Errorf("ReadFile = %q, want %q", data, "secret")
	}

	info, err := r.Stat("keys/deploy/id_rsa")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("Mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestRoot_WriteRejectsEscape(t *testing.T) {
	parent := t.TempDir()
	r, err := OpenRoot(filepath.Join(parent, "out"))
	if err != nil {
		t.Fatalf("Failed to open root: %v", err)
	}
	defer r.Close()

	for _, name := range []string{"../escaped", "a/../../escaped", filepath.Join(parent, "escaped")} {
		if err := r.WriteFile(name, []byte("x"), 0600); err == nil {
			t.Errorf("WriteFile(%q) should fail", name)
		}
	}

	if _, err := os.Stat(filepath.Join(parent, "escaped")); !os.IsNotExist(err) {
		t.Error("File was written outside the root")
	}
}

func TestRoot_SymlinkEscapeBlocked(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	parent := t.TempDir()
	outside := filepath.Join(parent, "outside")
	if err := os.Mkdir(outside, 0700); err != nil {
		t.Fatal(err)
	}

	r, err := OpenRoot(filepath.Join(parent, "out"))
	if err != nil {
		t.Fatalf("Failed to open root: %v", err)
	}
	defer r.Close()

	if err := os.Symlink(outside, filepath.Join(r.Dir(), "link")); err != nil {
		t.Fatal(err)
	}

	err = r.WriteFile("link/pwned", []byte("x"), 0600)
	if err == nil {
		t.Fatal("Write through symlink should fail")
	}
	if _, err := os.Stat(filepath.Join(outside, "pwned")); !os.IsNotExist(err) {
		t.Error("File was written through symlink")
	}
}

func TestRoot_Join(t *testing.T) {
	r := openTestRoot(t)

	got, err := r.Join("personal.vault")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if got != filepath.Join(r.Dir(), "personal.vault") {
		t.Errorf("Join = %q", got)
	}
	if _, err := r.Join("../x"); !strings.Contains(err.Error(), ErrPathEscapes.Error()) {
		t.Errorf("Join escape error = %v", err)
	}
}
