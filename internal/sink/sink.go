// Package sink writes periodic StatsSnapshot rows to a CSV file or stdout.
package sink

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpcclab/mq-bench-go/internal/stats"
)

// Sink accepts snapshots and renders them to a destination.
type Sink interface {
	WriteSnapshot(s stats.Snapshot) error
	Close() error
}

// csvSink buffers rows to a file, flushing after each write so a killed
// process still leaves a readable partial file.
type csvSink struct {
	f *os.File
	w *bufio.Writer
}

// NewCSV opens (creating parent directories as needed) a CSV file at path
// and writes the fixed header line.
func NewCSV(path string) (Sink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sink: create dir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sink: create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if _, err := w.WriteString(stats.CSVHeader + "\n"); err != nil {
		f.Close()
		return nil, fmt.Errorf("sink: write header: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("sink: flush header: %w", err)
	}
	return &csvSink{f: f, w: w}, nil
}

func (s *csvSink) WriteSnapshot(snap stats.Snapshot) error {
	if _, err := s.w.WriteString(snap.ToCSVRow() + "\n"); err != nil {
		return fmt.Errorf("sink: write row: %w", err)
	}
	return s.w.Flush()
}

func (s *csvSink) Close() error {
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

// stdoutSink prints one line per snapshot, for interactive runs with no
// --csv flag.
type stdoutSink struct{}

// NewStdout builds a Sink that writes to standard output.
func NewStdout() Sink {
	return stdoutSink{}
}

func (stdoutSink) WriteSnapshot(snap stats.Snapshot) error {
	fmt.Println(snap.ToCSVRow())
	return nil
}

func (stdoutSink) Close() error { return nil }
