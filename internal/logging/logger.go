// Package logging builds the logrus logger shared by every component.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how much the logger writes.
type Options struct {
	// Source is written into every line to identify the process.
	Source string
	// Level is a logrus level name; invalid names fall back to info.
	Level string
	// File, when set, adds a size-rotated log file next to stderr.
	File string
	// Stderr disables console output when false and File is set.
	Stderr bool
}

// Formatter renders one line per entry: timestamp, source, level, event,
// message and the remaining fields in key order.
type Formatter struct {
	Source string
}

func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	fmt.Fprintf(b, "%s source=%s level=%s",
		entry.Time.UTC().Format("2006-01-02T15:04:05.000Z"), f.Source, strings.ToUpper(entry.Level.String()))
	if ev, ok := entry.Data["event"]; ok {
		fmt.Fprintf(b, " event=%v", ev)
	}
	fmt.Fprintf(b, " msg=%q", entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != "event" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// New builds a logger according to opts. The returned closer releases the
// log file, if any.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	source := opts.Source
	if source == "" {
		source = "boardsync"
	}
	logger.SetFormatter(&Formatter{Source: source})

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if opts.File == "" {
		logger.SetOutput(os.Stderr)
		return logger, io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	if opts.Stderr {
		logger.SetOutput(io.MultiWriter(os.Stderr, file))
	} else {
		logger.SetOutput(file)
	}
	return logger, file, nil
}

// Discard returns a logger that drops everything. Useful for tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return Discard()
	}
	return l
}
