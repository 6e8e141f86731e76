package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	LevelTrace LogLevel = iota - 1
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// slog levels are spaced by 4; map ours onto them so handler filtering works.
func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelTrace:
		return slog.LevelDebug - 4
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	case LevelFatal:
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      LogLevel `json:"level"`
	Format     string   `json:"format"`      // "json" or "text"
	Output     string   `json:"output"`      // "stdout", "stderr"
	EnableFile bool     `json:"enable_file"` // also write to FilePath
	FilePath   string   `json:"file_path"`
	AddSource  bool     `json:"add_source"`
}

// DefaultLogConfig returns sensible default logging configuration
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  LevelInfo,
		Format: "json",
		Output: "stdout",
	}
}

// Logger provides structured logging with context support
type Logger struct {
	config  LogConfig
	slogger *slog.Logger
	file    *os.File
	mu      sync.Mutex
	closed  bool
}

// NewLogger creates a new structured logger
func NewLogger(config LogConfig) (*Logger, error) {
	logger := &Logger{config: config}

	var writer io.Writer
	switch config.Output {
	case "stderr":
		writer = os.Stderr
	default:
		writer = os.Stdout
	}

	if config.EnableFile {
		if err := logger.setupFileLogging(); err != nil {
			return nil, fmt.Errorf("failed to setup file logging: %w", err)
		}
		writer = io.MultiWriter(writer, logger.file)
	}

	logger.slogger = slog.New(newHandler(writer, config))
	return logger, nil
}

// NewWriterLogger builds a logger that writes to w. Used by tests and tools.
func NewWriterLogger(w io.Writer, config LogConfig) *Logger {
	return &Logger{config: config, slogger: slog.New(newHandler(w, config))}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return NewWriterLogger(io.Discard, LogConfig{Level: LevelFatal, Format: "text"})
}

func newHandler(w io.Writer, config LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     config.Level.slogLevel(),
		AddSource: config.AddSource,
	}
	if config.Format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// setupFileLogging creates log directory and file
func (l *Logger) setupFileLogging() error {
	if l.config.FilePath == "" {
		return fmt.Errorf("file path is required for file logging")
	}

	dir := filepath.Dir(l.config.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(l.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.file = file
	return nil
}

// Close releases the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Slog exposes the underlying slog logger for libraries that want one.
func (l *Logger) Slog() *slog.Logger { return l.slogger }

// WithContext returns a logger with context information
func (l *Logger) WithContext(ctx context.Context) *ContextLogger {
	return &ContextLogger{logger: l, ctx: ctx}
}

// WithComponent returns a logger with component information
func (l *Logger) WithComponent(component string) *ComponentLogger {
	return &ComponentLogger{logger: l, component: component}
}

// ContextLogger provides context-aware logging
type ContextLogger struct {
	logger *Logger
	ctx    context.Context
}

// ComponentLogger provides component-specific logging
type ComponentLogger struct {
	logger    *Logger
	component string
}

func (l *Logger) Trace(msg string, fields ...Field) { l.log(context.Background(), LevelTrace, msg, nil, fields) }
func (l *Logger) Debug(msg string, fields ...Field) { l.log(context.Background(), LevelDebug, msg, nil, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(context.Background(), LevelInfo, msg, nil, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(context.Background(), LevelWarn, msg, nil, fields) }

func (l *Logger) Error(msg string, err error, fields ...Field) {
	l.log(context.Background(), LevelError, msg, err, fields)
}

// Fatal logs at fatal level and exits
func (l *Logger) Fatal(msg string, err error, fields ...Field) {
	l.log(context.Background(), LevelFatal, msg, err, fields)
	l.Close()
	os.Exit(1)
}

// ComponentLogger methods

// Ctx binds a request context to the component logger.
func (cl *ComponentLogger) Ctx(ctx context.Context) *ContextLogger {
	return &ContextLogger{logger: cl.logger, ctx: withComponent(ctx, cl.component)}
}

func (cl *ComponentLogger) Debug(msg string, fields ...Field) {
	cl.logger.log(context.Background(), LevelDebug, msg, nil, cl.with(fields))
}

func (cl *ComponentLogger) Info(msg string, fields ...Field) {
	cl.logger.log(context.Background(), LevelInfo, msg, nil, cl.with(fields))
}

func (cl *ComponentLogger) Warn(msg string, fields ...Field) {
	cl.logger.log(context.Background(), LevelWarn, msg, nil, cl.with(fields))
}

func (cl *ComponentLogger) Error(msg string, err error, fields ...Field) {
	cl.logger.log(context.Background(), LevelError, msg, err, cl.with(fields))
}

func (cl *ComponentLogger) with(fields []Field) []Field {
	return append(fields, String("component", cl.component))
}

// ContextLogger methods
func (cl *ContextLogger) Debug(msg string, fields ...Field) {
	cl.logger.log(cl.ctx, LevelDebug, msg, nil, fields)
}

func (cl *ContextLogger) Info(msg string, fields ...Field) {
	cl.logger.log(cl.ctx, LevelInfo, msg, nil, fields)
}

func (cl *ContextLogger) Warn(msg string, fields ...Field) {
	cl.logger.log(cl.ctx, LevelWarn, msg, nil, fields)
}

func (cl *ContextLogger) Error(msg string, err error, fields ...Field) {
	cl.logger.log(cl.ctx, LevelError, msg, err, fields)
}

func (l *Logger) log(ctx context.Context, level LogLevel, msg string, err error, fields []Field) {
	if level < l.config.Level {
		return
	}

	attrs := make([]slog.Attr, 0, len(fields)+4)
	if id := RequestIDFrom(ctx); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	if c, ok := ctx.Value(componentKey).(string); ok && c != "" {
		attrs = append(attrs, slog.String("component", c))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	// Caller info only for problems; it's noise on info lines.
	if level >= LevelWarn {
		if _, file, line, ok := runtime.Caller(3); ok {
			attrs = append(attrs, slog.String("caller", fmt.Sprintf("%s:%d", filepath.Base(file), line)))
		}
	}

	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}

	l.slogger.LogAttrs(ctx, level.slogLevel(), msg, attrs...)
}

// Context keys

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	componentKey ctxKey = "component"
)

// WithRequestID stores a request ID on the context for later log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the request ID carried by ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func withComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field             { return Field{Key: key, Value: value} }
func Strings(key string, value []string) Field   { return Field{Key: key, Value: value} }
func Int(key string, value int) Field            { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field    { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field          { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value.String()} }
func Any(key string, value interface{}) Field    { return Field{Key: key, Value: value} }
func Keyword(value string) Field                 { return Field{Key: "keyword", Value: value} }

// ParseLevel converts a config string to a LogLevel. Unknown values map to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}
