package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BackupName swaps the extension of path for "old.txt":
// "target.txt" becomes "target.old.txt".
func BackupName(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".old.txt"
}

// BackupExisting renames a regular file at path to its backup name so a new
// run never appends to old results. A missing file is not an error.
func BackupExisting(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("can't inspect output file %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	backup := BackupName(path)
	if err := os.Rename(path, backup); err != nil {
		return fmt.Errorf("the file %s already exists but can't be backed up to %s; run with a more privileged user or from another directory: %w",
			path, backup, err)
	}
	return nil
}

// Line formats one result. ip is appended only when withIP is set.
func Line(subdomain, ip string, withIP bool) string {
	if withIP {
		return subdomain + "," + ip
	}
	return subdomain
}

// Writer appends result lines to a file, creating it on first use.
type Writer struct {
	path string
	f    *os.File
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) WriteLine(line string) error {
	if w.f == nil {
		f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("can't create file %s: %w", w.path, err)
		}
		w.f = f
	}
	if _, err := io.WriteString(w.f, line+"\n"); err != nil {
		return fmt.Errorf("can't write to file %s: %w", w.path, err)
	}
	return nil
}

func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
