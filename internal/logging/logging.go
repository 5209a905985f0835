package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level controls which messages a logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// ParseLevel maps a configuration string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

const (
	FormatHuman = "human"
	FormatJSON  = "json"
)

// Logger writes leveled, structured messages to a single destination.
// Analysis output goes to stdout, so logs default to stderr.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	level  Level
	format string
	now    func() time.Time
}

func New(out io.Writer, level Level, format string) *Logger {
	if format != FormatJSON {
		format = FormatHuman
	}
	return &Logger{out: out, level: level, format: format, now: time.Now}
}

var defaultLogger = New(os.Stderr, LevelInfo, FormatHuman)

// Init replaces the package-level logger configuration.
func Init(level Level, format string) {
	defaultLogger = New(os.Stderr, level, format)
}

func Debug(msg string, fields map[string]any) { defaultLogger.log(LevelDebug, msg, fields) }
func Info(msg string, fields map[string]any)  { defaultLogger.log(LevelInfo, msg, fields) }
func Warn(msg string, fields map[string]any)  { defaultLogger.log(LevelWarn, msg, fields) }
func Error(msg string, fields map[string]any) { defaultLogger.log(LevelError, msg, fields) }

func (l *Logger) Debug(msg string, fields map[string]any) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields map[string]any)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]any)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields map[string]any) { l.log(LevelError, msg, fields) }

func (l *Logger) log(level Level, msg string, fields map[string]any) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now().UTC().Format(time.RFC3339)
	if l.format == FormatJSON {
		entry := make(map[string]any, len(fields)+3)
		for k, v := range fields {
			entry[k] = v
		}
		entry["ts"] = ts
		entry["level"] = level.String()
		entry["msg"] = msg
		line, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(l.out, `{"ts":%q,"level":"error","msg":"log entry not serializable: %v"}`+"\n", ts, err)
			return
		}
		fmt.Fprintf(l.out, "%s\n", line)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s", ts, level.String(), msg)
	for _, k := range sortedKeys(fields) {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	fmt.Fprintln(l.out, b.String())
}

func sortedKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
