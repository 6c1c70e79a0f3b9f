package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// ValidateInputFile checks that path names an existing regular file
func ValidateInputFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("input path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access input file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("input is not a regular file: %s", path)
	}
	return nil
}

// ValidateOutputPath rejects output paths that point at a directory or
// coincide with one of the inputs.
func ValidateOutputPath(output string, inputs ...string) error {
	if strings.TrimSpace(output) == "" {
		return fmt.Errorf("output path is empty")
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return fmt.Errorf("output path is a directory: %s", output)
	}
	absOut, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}
	for _, in := range inputs {
		absIn, err := filepath.Abs(in)
		if err != nil {
			continue
		}
		if absIn == absOut {
			return fmt.Errorf("output would overwrite input: %s", output)
		}
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// SanitizeFilename reduces an uploaded file name to a safe base name.
// Both separators are stripped since browsers on Windows send full paths.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(SanitizeString(name), `\`, "/")
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." || name == ".." {
		return ""
	}
	return name
}
