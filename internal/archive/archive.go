package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// BackupDatabase copies the database file into an "archive" directory next
// to it, named with a timestamp. It returns the backup path, or an empty
// path when there is no database yet.
func BackupDatabase(dbPath string, now time.Time) (string, error) {
	// Nothing to keep before the first import
	src, err := os.Open(dbPath)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer src.Close()

	archiveDir := filepath.Join(filepath.Dir(dbPath), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := filepath.Base(dbPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]

	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", name, now.Format("20060102-150405"), ext))
	// Check if archive already exists (unlikely but possible)
	if _, err := os.Stat(archivePath); err == nil {
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", name, now.Format("20060102-150405.000000"), ext))
	}

	dst, err := os.OpenFile(archivePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(archivePath)
		return "", fmt.Errorf("failed to copy database: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return archivePath, nil
}
