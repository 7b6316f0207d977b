// Package logging configures the process-wide logger and provides helpers for
// progress, warning and model-traffic log lines.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	mu      sync.Mutex
	logFile *os.File
)

// Init routes the standard logger to stderr and, when logPath is set, to an
// append-only log file whose parent directories are created as needed.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	writers = append(writers, os.Stderr)

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

// Close releases the log file and restores stderr output.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

// FileOnly stops console output, keeping the log file if one is open. Used
// while a full-screen terminal UI owns the display.
func FileOnly() {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(logFile)
}

func LogEvent(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(msg)
}

// LogWarning logs a highlighted warning line.
func LogWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(color.YellowString("[WARN]") + " " + msg)
}

// LogRequest logs one leg of traffic to or from a model backend.
func LogRequest(direction, host, model string, payload any) {
	msg := buildRequestMessage(direction, host, model, payload)
	log.Println(msg)
}

// Reporter prefixes progress lines with the time elapsed since it was created.
type Reporter struct {
	start time.Time
}

// NewReporter starts the elapsed-time clock.
func NewReporter() *Reporter {
	return &Reporter{start: time.Now()}
}

// Status logs a progress line.
func (r *Reporter) Status(format string, args ...any) {
	log.Print(r.prefix() + fmt.Sprintf(format, args...))
}

// Warn logs a highlighted progress line.
func (r *Reporter) Warn(format string, args ...any) {
	log.Print(r.prefix() + color.YellowString("[WARN]") + " " + fmt.Sprintf(format, args...))
}

// Elapsed returns the time since the reporter was created.
func (r *Reporter) Elapsed() time.Duration {
	return time.Since(r.start).Truncate(time.Millisecond)
}

func (r *Reporter) prefix() string {
	return fmt.Sprintf("[%s] ", r.Elapsed())
}

func buildRequestMessage(direction, host, model string, payload any) string {
	dir := strings.TrimSpace(direction)
	if dir != "" {
		dir = strings.ToUpper(dir)
	}
	hostValue := strings.TrimSpace(host)
	if hostValue == "" {
		hostValue = "unknown"
	}
	modelValue := strings.TrimSpace(model)
	if modelValue == "" {
		modelValue = "unknown"
	}
	parts := []string{fmt.Sprintf("[%s]", dir)}
	parts = append(parts, fmt.Sprintf("host=%s", hostValue))
	parts = append(parts, fmt.Sprintf("model=%s", modelValue))
	parts = append(parts, fmt.Sprintf("payload=%s", formatPayload(payload)))
	return strings.Join(parts, " ")
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
