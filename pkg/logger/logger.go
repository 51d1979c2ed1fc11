// Package logger provides a small leveled logger with structured key/value
// fields and text or json line output.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a LogLevel, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

type Logger struct {
	level  LogLevel
	logger *log.Logger
	fields map[string]interface{}
	format string // "json" or "text"
}

type Config struct {
	Level  LogLevel
	Output io.Writer
	Format string // "json" or "text" (default)
}

func New() *Logger {
	return NewWithConfig(Config{
		Level:  INFO,
		Output: os.Stderr,
		Format: "text",
	})
}

func NewWithConfig(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}
	if config.Format == "" {
		config.Format = "text"
	}

	return &Logger{
		level:  config.Level,
		logger: log.New(config.Output, "", 0),
		fields: make(map[string]interface{}),
		format: config.Format,
	}
}

func (l *Logger) WithFields(keyVals ...interface{}) *Logger {
	newLogger := &Logger{
		level:  l.level,
		logger: l.logger,
		fields: make(map[string]interface{}),
		format: l.format,
	}

	// copy existing fields
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}

	for i := 0; i < len(keyVals); i += 2 {
		if i+1 < len(keyVals) {
			key := fmt.Sprintf("%v", keyVals[i])
			newLogger.fields[key] = keyVals[i+1]
		}
	}

	return newLogger
}

// WithField creates a new logger that includes an extra bit of context.
// Handy for adding things like "component=pileup-creator" to your logs.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(key, value)
}

func (l *Logger) Debug(msg string, keyVals ...interface{}) {
	l.log(DEBUG, msg, keyVals...)
}

func (l *Logger) Info(msg string, kv ...interface{}) {
	l.log(INFO, msg, kv...)
}

func (l *Logger) Warn(msg string, kv ...interface{}) {
	l.log(WARN, msg, kv...)
}

func (l *Logger) Error(msg string, kv ...interface{}) {
	l.log(ERROR, msg, kv...)
}

func (l *Logger) Fatal(msg string, kv ...interface{}) {
	l.log(ERROR, msg, kv...)
	os.Exit(1)
}

func (l *Logger) log(level LogLevel, msg string, kv ...interface{}) {
	if level < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02T15:04:05.000Z07:00")

	allFields := make(map[string]interface{})
	for k, v := range l.fields {
		allFields[k] = v
	}

	// key/vals from this specific log call
	for i := 0; i < len(kv); i += 2 {
		if i+1 < len(kv) {
			key := fmt.Sprintf("%v", kv[i])
			allFields[key] = kv[i+1]
		}
	}

	if l.format == "json" {
		l.logger.Print(l.formatJSONLine(timestamp, level, msg, allFields))
		return
	}
	l.logger.Print(l.formatTextLine(timestamp, level, msg, allFields))
}

func (l *Logger) formatTextLine(timestamp string, level LogLevel, msg string, fields map[string]interface{}) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s]", timestamp))
	parts = append(parts, fmt.Sprintf("[%s]", level.String()))
	parts = append(parts, msg)

	if len(fields) > 0 {
		var fieldParts []string
		for key, value := range fields {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", key, formatValue(value)))
		}
		parts = append(parts, fmt.Sprintf("| %s", strings.Join(fieldParts, " ")))
	}

	return strings.Join(parts, " ")
}

func (l *Logger) formatJSONLine(timestamp string, level LogLevel, msg string, fields map[string]interface{}) string {
	entry := make(map[string]interface{}, len(fields)+3)
	for k, v := range fields {
		switch val := v.(type) {
		case error:
			entry[k] = val.Error()
		case time.Duration:
			entry[k] = val.String()
		default:
			entry[k] = val
		}
	}
	entry["ts"] = timestamp
	entry["level"] = level.String()
	entry["msg"] = msg

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"ts":%q,"level":%q,"msg":%q}`, timestamp, level.String(), msg)
	}
	return string(data)
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		// Quote strings that contain spaces
		if strings.Contains(v, " ") {
			return fmt.Sprintf(`"%s"`, v)
		}
		return v
	case error:
		return fmt.Sprintf(`"%s"`, v.Error())
	case time.Duration:
		return v.String()
	case time.Time:
		return v.Format("2006-01-02T15:04:05Z07:00")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

func (l *Logger) GetLevel() LogLevel {
	return l.level
}

func (l *Logger) IsDebugEnabled() bool {
	return l.level <= DEBUG
}
