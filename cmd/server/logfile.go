package main

import (
	"io"
	"os"
	"path/filepath"
	"sync"
)

// A log file is trimmed to its newest keepLogBytes once it exceeds
// maxLogBytes.
const (
	maxLogBytes  = 6 << 20
	keepLogBytes = 5 << 20
)

// logFile is a size-capped append-only log writer.
type logFile struct {
	mu   sync.Mutex
	file *os.File
	max  int64
	keep int64
}

func openLogFile(path string) (*logFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	lf := &logFile{file: file, max: maxLogBytes, keep: keepLogBytes}
	if err := lf.trim(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return lf, nil
}

func (l *logFile) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := l.file.Write(p)
	if err != nil {
		return n, err
	}
	return n, l.trim()
}

func (l *logFile) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// trim keeps the tail of the file once it grows past max.
func (l *logFile) trim() error {
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= l.max {
		return nil
	}

	tail := make([]byte, l.keep)
	n, err := l.file.ReadAt(tail, size-l.keep)
	if err != nil && err != io.EOF {
		return err
	}
	if err := l.file.Truncate(0); err != nil {
		return err
	}
	// O_APPEND writes land at the new end of file.
	_, err = l.file.Write(tail[:n])
	return err
}
