// Package logging provides internal diagnostic logging, adapted from the
// teacher's advanced/logging structured logger. This is distinct from
// internal/events: events are the user-facing simulation trace, this
// logger is for things an operator running the simulator would want in a
// log file (e.g. "site 4 recovered, 2 variables marked unreadable").
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is log entry severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "INFO"
	}
}

func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// Entry is one structured log record.
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Component string                 `json:"component"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Output is where rendered entries go.
type Output interface {
	Write(*Entry) error
}

// JSONOutput writes one JSON object per entry.
type JSONOutput struct {
	w  io.Writer
	mu sync.Mutex
}

func NewJSONOutput(w io.Writer) *JSONOutput { return &JSONOutput{w: w} }

func (j *JSONOutput) Write(e *Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("logging: marshal entry: %w", err)
	}
	_, err = j.w.Write(append(data, '\n'))
	return err
}

// TextOutput writes a compact "LEVEL [component] message" line, the default
// for interactive CLI use.
type TextOutput struct {
	w  io.Writer
	mu sync.Mutex
}

func NewTextOutput(w io.Writer) *TextOutput { return &TextOutput{w: w} }

func (t *TextOutput) Write(e *Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.w, "%s [%s] %s\n", e.Level, e.Component, e.Message)
	return err
}

// Logger is a leveled structured logger with a fixed component tag.
type Logger struct {
	level     Level
	output    Output
	component string
}

// New builds a Logger at level writing to output, tagged with component.
func New(level Level, output Output, component string) *Logger {
	if output == nil {
		output = NewTextOutput(os.Stderr)
	}
	return &Logger{level: level, output: output, component: component}
}

// WithComponent returns a logger sharing level/output but tagged
// differently, for a subsystem (e.g. "site.4", "deadlock").
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{level: l.level, output: l.output, component: component}
}

func (l *Logger) log(level Level, message string, metadata map[string]interface{}) {
	if level < l.level {
		return
	}
	entry := &Entry{
		Timestamp: time.Now().UTC(),
		Level:     level.String(),
		Component: l.component,
		Message:   message,
		Metadata:  metadata,
	}
	if err := l.output.Write(entry); err != nil {
		fmt.Fprintf(os.Stderr, "logging: write entry: %v\n", err)
	}
}

func (l *Logger) Debug(message string) { l.log(Debug, message, nil) }
func (l *Logger) Info(message string)  { l.log(Info, message, nil) }
func (l *Logger) Warn(message string)  { l.log(Warn, message, nil) }
func (l *Logger) Error(message string) { l.log(Error, message, nil) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.log(Debug, fmt.Sprintf(format, args...), nil) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(Info, fmt.Sprintf(format, args...), nil) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log(Warn, fmt.Sprintf(format, args...), nil) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(Error, fmt.Sprintf(format, args...), nil) }
