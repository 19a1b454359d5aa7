package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GetAbsPath expands a leading "~" to the home directory and makes path absolute.
func GetAbsPath(path string) (string, error) {
	result := path
	if strings.HasPrefix(path, "~") {
		homedir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("couldn't determine the home directory: %w", err)
		}
		result = strings.Replace(path, "~", homedir, 1)
	}
	return filepath.Abs(result)
}

// FileExists reports whether path is an existing regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("path is a directory: %s", path)
	}
	return true, nil
}
