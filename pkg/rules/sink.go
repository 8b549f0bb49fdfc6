package rules

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Sink receives a rendered program and the number of rule stages in it.
type Sink interface {
	Write(text string, rules int) error
}

// FileSink writes programs to a file.
type FileSink struct {
	Path   string
	Logger *log.Logger
}

// Write implements Sink.
func (s FileSink) Write(text string, rules int) error {
	if err := os.WriteFile(s.Path, []byte(text), 0644); err != nil {
		return fmt.Errorf("write rules: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Info("wrote rules", "rules", rules, "path", s.Path)
	}
	return nil
}

// WriterSink writes programs to an io.Writer, such as stdout.
type WriterSink struct {
	W io.Writer
}

// Write implements Sink.
func (s WriterSink) Write(text string, rules int) error {
	if _, err := io.WriteString(s.W, text); err != nil {
		return fmt.Errorf("write rules: %w", err)
	}
	return nil
}
