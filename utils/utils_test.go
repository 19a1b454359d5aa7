package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetAbsPath(t *testing.T) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	workdir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path     string
		expected string
	}{
		{"/etc/rhn/rhn.conf", "/etc/rhn/rhn.conf"},
		{"~/export.json", filepath.Join(homedir, "export.json")},
		{"export.json", filepath.Join(workdir, "export.json")},
	}
	for _, test := range tests {
		result, err := GetAbsPath(test.path)
		if err != nil {
			t.Fatal(err)
		}
		if result != test.expected {
			t.Errorf("GetAbsPath(%s) = %s, expected %s", test.path, result, test.expected)
		}
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "export.json")
	if err := os.WriteFile(file, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	if exists, err := FileExists(file); !exists || err != nil {
		t.Errorf("expected %s to exist, got %v, %v", file, exists, err)
	}
	if exists, err := FileExists(filepath.Join(dir, "missing")); exists || err != nil {
		t.Errorf("expected a missing file, got %v, %v", exists, err)
	}
	if _, err := FileExists(dir); err == nil {
		t.Error("expected an error for a directory")
	}
}
