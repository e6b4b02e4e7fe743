package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/petrijr/rastro/pkg/api"
)

// HistoryFileName is the name of the log a FileSink writes in its work
// directory.
const HistoryFileName = "history.log"

// FileSink appends one line per record to <workDir>/history.log.
//
// There is no rotation, truncation or compression; the file grows for as
// long as the sink is open.
type FileSink struct {
	mu     sync.Mutex
	f      *os.File
	path   string
	closed bool
}

var (
	_ Sink    = (*FileSink)(nil)
	_ Stopper = (*FileSink)(nil)
)

// NewFileSink opens (creating if needed) workDir/history.log for appending.
// workDir itself is created if it does not exist.
func NewFileSink(workDir string) (*FileSink, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	path := filepath.Join(workDir, HistoryFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}
	return &FileSink{f: f, path: path}, nil
}

func (s *FileSink) Append(ctx context.Context, rec api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	_, err := s.f.WriteString(rec.Line + "\n")
	return err
}

// File returns the underlying file handle.
func (s *FileSink) File() *os.File {
	return s.f
}

// Path returns the path of the history file.
func (s *FileSink) Path() string {
	return s.path
}

// Closed reports whether Stop has been called.
func (s *FileSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Stop closes the file. It is idempotent.
func (s *FileSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}
