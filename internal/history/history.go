// Package history appends invocations to a run-history log. The log is
// append-only and never read back.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const separator = "--------------------------------"

// Append writes argv as one space-joined line followed by a separator line,
// creating the log and its parent directory when missing.
func Append(path string, argv []string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("history: empty log path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("history: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	entry := strings.Join(argv, " ") + "\n" + separator + "\n"
	if _, err := f.WriteString(entry); err != nil {
		_ = f.Close()
		return fmt.Errorf("history: %w", err)
	}
	return f.Close()
}
