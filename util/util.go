package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// StringListContains returns true if the list of strings contains item.
func StringListContains(list []string, item string) bool {
	if list != nil {
		for i := range list {
			if list[i] == item {
				return true
			}
		}
	}
	return false
}

// ExpandTilde expands the tilde in a file path to the user's home
// directory.
func ExpandTilde(filePath string) (string, error) {
	if !strings.HasPrefix(filePath, "~") {
		return filePath, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, strings.TrimPrefix(filePath, "~")), nil
}

// FileExists returns true if the file at path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var zipMagic = []byte{0x50, 0x4b, 0x03, 0x04}

// IsZipData returns true if data starts with the zip local-file-header
// magic. Both spreadsheet workbooks and Darwin Core Archives arrive as
// zip files; bare CSV submissions do not.
func IsZipData(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], zipMagic)
}

// LooksLikeCSV returns true if the file name has a .csv extension.
func LooksLikeCSV(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".csv")
}
