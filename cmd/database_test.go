// SPDX-FileCopyrightText: 2025 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/uyuni-project/dbjson/schemareader"
)

// create a temp file with a dummy password
func createTempFile(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "passwordfile")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	_, err = f.WriteString("filepassword\n")
	if err != nil {
		t.Fatalf("failed to write to temp file: %v", err)
	}
	f.Close()
	return f.Name()
}

// TestGetDBPassword checks the priority of password sources: dbPasswordFile flag, stdin, and dbPassword flag.
func TestGetDBPassword(t *testing.T) {
	// Create the temp file once
	tmpFile := createTempFile(t)
	defer os.Remove(tmpFile)

	tests := []struct {
		dbPassword     string
		dbPasswordFile string
		stdinContent   string
		expected       string
	}{
		// dont provide any password, get the same as dbPassword
		{
			dbPassword:     "",
			dbPasswordFile: "",
			stdinContent:   "",
			expected:       "",
		},
		{
			dbPassword:     "abc",
			dbPasswordFile: "",
			stdinContent:   "",
			expected:       "abc",
		},
		//stdin takes prio over dbPassword, handles \n
		{
			dbPassword:     "flagpassword",
			dbPasswordFile: "",
			stdinContent:   "stdinpassword\n",
			expected:       "stdinpassword",
		},
		// dbPasswordFile takes prio over stdin (which took prio over dbPassword)
		{
			dbPassword:     "flagpassword",
			dbPasswordFile: tmpFile,
			stdinContent:   "stdinpassword\n",
			expected:       "filepassword",
		},
	}

	for i, tt := range tests {
		origStdin := os.Stdin
		defer func() { os.Stdin = origStdin }()

		// Prepare stdin
		if tt.stdinContent != "" {
			r, w, err := os.Pipe()
			if err != nil {
				t.Fatalf("failed to create pipe: %v", err)
			}
			go func() {
				w.Write([]byte(tt.stdinContent))
				w.Close()
			}()
			os.Stdin = r
		} else {
			f, err := os.Open("/dev/null")
			if err != nil {
				t.Fatalf("failed to open /dev/null: %v", err)
			}
			os.Stdin = f
		}

		got, err := getDBPassword(tt.dbPassword, tt.dbPasswordFile)
		if err != nil {
			t.Fatalf("test case %d: unexpected error: %v", i, err)
		}
		if got != tt.expected {
			t.Errorf("test case %d: expected '%s', got '%s'", i, tt.expected, got)
		}
	}
}

func TestGetDBPassword_FileNotFound(t *testing.T) {
	_, err := getDBPassword("", "./nonexistentfile")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	if err := os.WriteFile(path, []byte("chunk_size: 500\ncompression: gzip\n"), 0644); err != nil {
		t.Fatal(err)
	}
	optionsFile = path
	defer func() { optionsFile = "" }()

	flags := pflag.NewFlagSet("export", pflag.ContinueOnError)
	flags.Int("chunkSize", 10000, "")
	flags.String("compression", "none", "")
	flags.Bool("countEntriesFirst", false, "")
	if err := flags.Parse([]string{"--compression", "zstd", "--countEntriesFirst"}); err != nil {
		t.Fatal(err)
	}

	options, err := loadOptions(flags)

	if err != nil {
		t.Fatal(err)
	}
	// the file wins over flag defaults, explicit flags win over the file
	if options.ChunkSize != 500 || options.Compression != "zstd" || !options.CountEntriesFirst {
		t.Errorf("unexpected options %+v", *options)
	}
}

func TestPrintTables(t *testing.T) {
	var out bytes.Buffer
	tables := []schemareader.Table{
		{Name: "rhnchannel", PKColumns: []string{"id"}},
		{Name: "rhnchannelpackage", PKColumns: []string{"channel_id", "package_id"}},
		{Name: "settings"},
	}

	if err := printTables(&out, tables); err != nil {
		t.Fatal(err)
	}

	expected := "rhnchannel (id)\nrhnchannelpackage (channel_id, package_id)\nsettings\n"
	if out.String() != expected {
		t.Errorf("got %q, expected %q", out.String(), expected)
	}
}

func TestLogCallerMarshalFunction(t *testing.T) {
	result := logCallerMarshalFunction("/home/user/go/src/dbjson/importer/importer.go", 42)
	if result != "importer/importer.go:42" {
		t.Errorf("unexpected caller %s", result)
	}
}
