package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"unicode/utf8"

	errs "sancg/pkg/errors"
)

func TestManager(t *testing.T) {
	// Create temporary directory for testing
	tempDir := t.TempDir()
	manager := NewManager(tempDir)

	if manager.Exists("311_s", "曹操.jpg") {
		t.Error("Expected Exists to return false for non-existent file")
	}

	testData := []byte("test photo data")
	path, err := manager.Save(bytes.NewReader(testData), "311_s", "曹操.jpg")
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "311_s", "曹操.jpg")
	if path != expectedPath {
		t.Errorf("Expected path %s, got %s", expectedPath, path)
	}

	content, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(content, testData) {
		t.Error("File content does not match expected data")
	}

	if !manager.Exists("311_s", "曹操.jpg") {
		t.Error("Expected Exists to return true for existing file")
	}

	// No temporary files should be left behind
	entries, err := os.ReadDir(filepath.Join(tempDir, "311_s"))
	if err != nil {
		t.Fatalf("Failed to read directory: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected exactly one file in directory, got %d", len(entries))
	}
}

func TestExistsIgnoresDirectories(t *testing.T) {
	tempDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tempDir, "39_s", "a.jpg"), 0755); err != nil {
		t.Fatal(err)
	}

	if NewManager(tempDir).Exists("39_s", "a.jpg") {
		t.Error("Expected a directory not to count as an existing file")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"曹操.jpg", "曹操.jpg"},
		{"a/b.jpg", "a_b.jpg"},
		{`a\b.jpg`, "a_b.jpg"},
		{"../x.jpg", ".._x.jpg"},
		{"关羽 字云长_1.jpg", "关羽 字云长_1.jpg"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilenameTruncatesLongNames(t *testing.T) {
	// 100 CJK characters are 300 bytes
	long := strings.Repeat("曹", 100) + ".jpg"

	got := SanitizeFilename(long)
	if len(got) > MaxFilenameBytes {
		t.Fatalf("Expected at most %d bytes, got %d", MaxFilenameBytes, len(got))
	}
	if !strings.HasSuffix(got, ".jpg") {
		t.Errorf("Expected extension to be kept, got %q", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("Expected valid UTF-8 after truncation, got %q", got)
	}
	if got != strings.Repeat("曹", 83)+".jpg" {
		t.Errorf("Expected the stem cut on a rune boundary, got %q", got)
	}

	if SanitizeFilename(long) != got {
		t.Error("Expected truncation to be deterministic")
	}
}

func TestSaveLongName(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManager(tempDir)
	name := strings.Repeat("关羽字云长", 30) + ".jpg"

	path, err := manager.Save(strings.NewReader("x"), "311_s", name)
	if err != nil {
		t.Fatalf("Failed to save file with long name: %v", err)
	}
	if !manager.Exists("311_s", name) {
		t.Error("Expected Exists to find the truncated file")
	}
	if len(filepath.Base(path)) > MaxFilenameBytes {
		t.Errorf("Expected truncated file name, got %d bytes", len(filepath.Base(path)))
	}
}

func TestSaveSanitizedName(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManager(tempDir)

	path, err := manager.Save(strings.NewReader("x"), "312_s", "a/b.jpg")
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}
	if filepath.Base(path) != "a_b.jpg" {
		t.Errorf("Expected sanitized name, got %s", path)
	}
}

func TestSavePermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	tempDir := t.TempDir()
	readOnly := filepath.Join(tempDir, "ro")
	if err := os.Mkdir(readOnly, 0555); err != nil {
		t.Fatal(err)
	}

	_, err := NewManager(readOnly).Save(strings.NewReader("x"), "313_s", "a.jpg")
	if err == nil {
		t.Fatal("Expected an error writing into a read-only directory")
	}
	if errs.TypeOf(err) != errs.ErrorTypePermission {
		t.Errorf("Expected permission error, got %v", errs.TypeOf(err))
	}
}
