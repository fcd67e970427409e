package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions configures the rotated log file.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	fileMu  sync.RWMutex
	fileOut io.Writer
)

// EnableFile copies the output of every logger created afterwards into a
// rotated file. The returned function closes the file and stops copying.
func EnableFile(o FileOptions) (func() error, error) {
	if dir := filepath.Dir(o.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	lj := &lumberjack.Logger{
		Filename:   o.Path,
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAgeDays,
	}
	fileMu.Lock()
	fileOut = lj
	fileMu.Unlock()
	return func() error {
		fileMu.Lock()
		if fileOut == lj {
			fileOut = nil
		}
		fileMu.Unlock()
		return lj.Close()
	}, nil
}

// withFile tees w into the rotated file when one is enabled. The file
// always receives JSON, even when w is a console writer.
func withFile(w io.Writer) io.Writer {
	fileMu.RLock()
	defer fileMu.RUnlock()
	if fileOut == nil {
		return w
	}
	return zerolog.MultiLevelWriter(w, fileOut)
}
