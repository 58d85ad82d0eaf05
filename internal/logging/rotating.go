package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
)

const dateLayout = "2006-01-02"

// RotatingWriter writes to <dir>/<base>.log and rotates at the first write
// of each new day. Rotated files are gzip-compressed and pruned past the
// retention count.
type RotatingWriter struct {
	mu   sync.Mutex
	dir  string
	base string
	keep int
	now  func() time.Time

	file *os.File
	day  string
}

// NewRotatingWriter opens (or resumes) the current log file in dir.
func NewRotatingWriter(dir, base string, keep int) (*RotatingWriter, error) {
	w := &RotatingWriter{dir: dir, base: base, keep: keep, now: time.Now}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingWriter) path() string {
	return filepath.Join(w.dir, w.base+".log")
}

func (w *RotatingWriter) open() error {
	file, err := os.OpenFile(w.path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	w.file = file
	w.day = w.now().Format(dateLayout)
	if info, err := file.Stat(); err == nil && info.Size() > 0 {
		// A restart must not count a previous day's leftover as today's.
		w.day = info.ModTime().Format(dateLayout)
	}
	return nil
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		if err := w.open(); err != nil {
			return 0, err
		}
	}
	if today := w.now().Format(dateLayout); today != w.day {
		if err := w.rotate(); err != nil {
			// Keep writing into the current file rather than losing output.
			w.day = today
		}
		if w.file == nil {
			if err := w.open(); err != nil {
				return 0, err
			}
		}
	}
	return w.file.Write(p)
}

// rotate is called with the lock held at the first write of a new day.
func (w *RotatingWriter) rotate() error {
	w.file.Close()
	w.file = nil

	rotated := filepath.Join(w.dir, fmt.Sprintf("%s-%s.log", w.base, w.day))
	if err := os.Rename(w.path(), rotated); err != nil {
		return fmt.Errorf("rename rotated log: %w", err)
	}

	file, err := os.OpenFile(w.path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("reopen log file: %w", err)
	}
	w.file = file
	w.day = w.now().Format(dateLayout)

	if err := compressFile(rotated); err != nil {
		return err
	}
	PruneRotated(w.dir, w.base, w.keep)
	return nil
}

// Close flushes and closes the current log file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// compressFile gzips path in place and removes the original.
func compressFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open rotated log: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return fmt.Errorf("create compressed log: %w", err)
	}
	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		dst.Close()
		return fmt.Errorf("compress rotated log: %w", err)
	}
	if err := gz.Close(); err != nil {
		dst.Close()
		return fmt.Errorf("finish compressed log: %w", err)
	}
	if err := dst.Close(); err != nil {
		return err
	}
	src.Close()
	return os.Remove(path)
}

// PruneRotated removes the oldest compressed rotated logs past keep and
// returns how many files were removed. Date-stamped names sort
// chronologically, so a plain string sort orders them oldest first.
func PruneRotated(dir, base string, keep int) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	prefix := base + "-"
	var rotated []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".log.gz") {
			rotated = append(rotated, name)
		}
	}
	if len(rotated) <= keep {
		return 0
	}
	sort.Strings(rotated)
	removed := 0
	for _, name := range rotated[:len(rotated)-keep] {
		if os.Remove(filepath.Join(dir, name)) == nil {
			removed++
		}
	}
	return removed
}
