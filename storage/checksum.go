package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"
)

const checksumExtension = ".xxh3"

// ChecksumWriter hashes everything written through it with xxh3.
type ChecksumWriter struct {
	w      io.Writer
	hasher *xxh3.Hasher
}

func NewChecksumWriter(w io.Writer) *ChecksumWriter {
	return &ChecksumWriter{w: w, hasher: xxh3.New()}
}

func (c *ChecksumWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.hasher.Write(p[:n])
	return n, err
}

// Sum returns the hex encoded hash of the bytes written so far.
func (c *ChecksumWriter) Sum() string {
	return formatSum(c.hasher.Sum64())
}

func formatSum(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}

// ChecksumPath is the sidecar file of path.
func ChecksumPath(path string) string {
	return path + checksumExtension
}

// WriteChecksumFile writes the sidecar of path, in the "<sum>  <name>" layout
// of the coreutils checksum tools.
func WriteChecksumFile(path string, sum string) error {
	content := fmt.Sprintf("%s  %s\n", sum, filepath.Base(path))
	if err := os.WriteFile(ChecksumPath(path), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write checksum of %s: %w", path, err)
	}
	return nil
}

// FileChecksum hashes the content of path.
func FileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hasher := xxh3.New()
	if _, err := io.Copy(hasher, bufio.NewReader(file)); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return formatSum(hasher.Sum64()), nil
}

// VerifyChecksumFile compares path against its sidecar.
func VerifyChecksumFile(path string) error {
	content, err := os.ReadFile(ChecksumPath(path))
	if err != nil {
		return fmt.Errorf("failed to read checksum of %s: %w", path, err)
	}
	fields := strings.Fields(string(content))
	if len(fields) == 0 {
		return fmt.Errorf("empty checksum file %s", ChecksumPath(path))
	}
	actual, err := FileChecksum(path)
	if err != nil {
		return err
	}
	if actual != fields[0] {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", path, fields[0], actual)
	}
	return nil
}
