package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents a logging level.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent // Disables all logging
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "SILENT"}

// String returns the level name.
func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "SILENT", "OFF", "NONE":
		return LevelSilent, nil
	}
	return LevelInfo, fmt.Errorf("invalid log level: %s (use debug, info, warn, error, silent)", s)
}

// Format specifies the log output format.
type Format int

const (
	FormatText Format = iota // key=value lines
	FormatJSON               // one JSON object per line
)

// ParseFormat parses "text" or "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("invalid log format: %s (use text or json)", s)
}

// Fields represents structured log fields.
type Fields map[string]interface{}

// sink is shared by a logger and every logger derived from it, so that
// derived loggers follow SetLevel and never interleave partial lines.
type sink struct {
	mu       sync.Mutex
	out      io.Writer
	level    atomic.Int32
	format   Format
	timeFunc func() time.Time
}

// Logger provides leveled, structured logging.
//
// Byte slices and byte arrays are never written verbatim: they are replaced
// by their length, so a key or output block passed as a field by mistake
// cannot end up in a log file.
type Logger struct {
	sink   *sink
	fields Fields
	name   string
}

// LoggerOption configures a logger.
type LoggerOption func(*Logger)

// WithOutput sets the output writer.
func WithOutput(w io.Writer) LoggerOption {
	return func(l *Logger) { l.sink.out = w }
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(l *Logger) { l.sink.level.Store(int32(level)) }
}

// WithFormat sets the output format.
func WithFormat(format Format) LoggerOption {
	return func(l *Logger) { l.sink.format = format }
}

// WithFields sets default fields for all log entries.
func WithFields(fields Fields) LoggerOption {
	return func(l *Logger) { l.fields = fields }
}

// WithName sets the logger name.
func WithName(name string) LoggerOption {
	return func(l *Logger) { l.name = name }
}

// NewLogger creates a logger writing text at info level to stderr unless
// options say otherwise.
func NewLogger(opts ...LoggerOption) *Logger {
	l := &Logger{
		sink:   &sink{out: os.Stderr, format: FormatText, timeFunc: time.Now},
		fields: Fields{},
	}
	l.sink.level.Store(int32(LevelInfo))
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// With returns a derived logger carrying additional fields.
func (l *Logger) With(fields Fields) *Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{sink: l.sink, fields: merged, name: l.name}
}

// Named returns a derived logger whose name is appended to this one's.
func (l *Logger) Named(name string) *Logger {
	if l.name != "" {
		name = l.name + "." + name
	}
	return &Logger{sink: l.sink, fields: l.fields, name: name}
}

// SetLevel changes the level for this logger and every logger sharing its
// output.
func (l *Logger) SetLevel(level Level) {
	l.sink.level.Store(int32(level))
}

// Enabled reports whether a message at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level < LevelSilent && int32(level) >= l.sink.level.Load()
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Fields) { l.log(LevelDebug, msg, fields) }

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Fields) { l.log(LevelInfo, msg, fields) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...Fields) { l.log(LevelWarn, msg, fields) }

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Fields) { l.log(LevelError, msg, fields) }

func (l *Logger) log(level Level, msg string, extra []Fields) {
	if !l.Enabled(level) {
		return
	}

	all := make(Fields, len(l.fields))
	for k, v := range l.fields {
		all[k] = redact(v)
	}
	for _, f := range extra {
		for k, v := range f {
			all[k] = redact(v)
		}
	}

	var line []byte
	if l.sink.format == FormatJSON {
		line = l.encodeJSON(level, msg, all)
	} else {
		line = l.encodeText(level, msg, all)
	}

	l.sink.mu.Lock()
	_, _ = l.sink.out.Write(line)
	l.sink.mu.Unlock()
}

// redact replaces raw bytes with a length marker.
func redact(v interface{}) interface{} {
	switch b := v.(type) {
	case []byte:
		return fmt.Sprintf("[%d bytes]", len(b))
	case nil:
		return nil
	}
	if t := reflect.TypeOf(v); t.Kind() == reflect.Array && t.Elem().Kind() == reflect.Uint8 {
		return fmt.Sprintf("[%d bytes]", t.Len())
	}
	return v
}

func (l *Logger) encodeJSON(level Level, msg string, fields Fields) []byte {
	entry := make(map[string]interface{}, len(fields)+4)
	for k, v := range fields {
		entry[k] = v
	}
	entry["time"] = l.sink.timeFunc().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg
	if l.name != "" {
		entry["logger"] = l.name
	}

	data, err := json.Marshal(entry)
	if err != nil {
		data, _ = json.Marshal(map[string]string{
			"level":     level.String(),
			"msg":       msg,
			"log_error": err.Error(),
		})
	}
	return append(data, '\n')
}

// encodeText writes "time LEVEL [name] msg k=v ..." with keys sorted.
func (l *Logger) encodeText(level Level, msg string, fields Fields) []byte {
	var b strings.Builder
	b.WriteString(l.sink.timeFunc().Format("15:04:05.000"))
	fmt.Fprintf(&b, " %-5s ", level)
	if l.name != "" {
		b.WriteString("[" + l.name + "] ")
	}
	b.WriteString(msg)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" " + k + "=" + textValue(fields[k]))
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

func textValue(v interface{}) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// --- Global Logger ---

var globalLogger atomic.Pointer[Logger]

func init() {
	// Generators run inside other programs; stay quiet unless asked.
	globalLogger.Store(NewLogger(WithLevel(LevelWarn)))
}

// SetLogger sets the global logger.
func SetLogger(l *Logger) {
	globalLogger.Store(l)
}

// GetLogger returns the global logger.
func GetLogger() *Logger {
	return globalLogger.Load()
}

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	return NewLogger(WithOutput(io.Discard), WithLevel(LevelSilent))
}
