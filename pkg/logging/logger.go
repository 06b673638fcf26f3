// Package logging writes the diagnostic log of one formpilot process.
//
// Every component gets its own named logger; all of them append to the same
// file, ~/.formpilot/logs/<session>-formpilot.log, so one run can be read
// back in order. Terminal output is the notifier's job, not this package's.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a component logger. Entries below the process-wide level (see
// SetLevel) are dropped; the level starts at debug.
type Logger struct {
	sessionID string
	component string
	file      *os.File
	sugar     *zap.SugaredLogger
	logPath   string
	closeOnce sync.Once
}

var (
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is resolved on first use unless SetDirectory ran before.
	logDir  string
	dirOnce sync.Once
	dirErr  error

	level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
)

func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

func ensureDirectory() error {
	dirOnce.Do(func() {
		if logDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				dirErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(home, ".formpilot", "logs")
		}
		if err := os.MkdirAll(logDir, 0o750); err != nil {
			dirErr = fmt.Errorf("failed to create log directory: %w", err)
		}
	})
	return dirErr
}

// SetDirectory overrides the log directory. Only effective before the first
// logger is created.
func SetDirectory(dir string) {
	if dir != "" {
		logDir = dir
	}
}

// Directory returns the log directory, creating it if needed.
func Directory() (string, error) {
	if err := ensureDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}

// SetLevel sets the minimum level of every logger: debug, info, warn or error.
func SetLevel(name string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	level.SetLevel(lvl)
	return nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + name + "]")
	}
	cfg.CallerKey = ""
	return cfg
}

func build(component string, sink zapcore.WriteSyncer) *zap.SugaredLogger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), sink, level)
	return zap.New(core).Named(component).With(zap.String("session", getSessionID())).Sugar()
}

// NewLogger opens the session log for component.
//
// When the directory or file cannot be opened it still returns a usable
// logger, writing to stderr, together with the error.
func NewLogger(component string) (*Logger, error) {
	if err := ensureDirectory(); err != nil {
		return stderrLogger(component, err), err
	}

	path := filepath.Join(logDir, getSessionID()+"-formpilot.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return stderrLogger(component, err), err
	}

	return &Logger{
		sessionID: getSessionID(),
		component: component,
		file:      file,
		sugar:     build(component, zapcore.AddSync(file)),
		logPath:   path,
	}, nil
}

func stderrLogger(component string, cause error) *Logger {
	sugar := build(component, zapcore.Lock(os.Stderr))
	sugar.Warnw("file logging unavailable, writing to stderr", "error", cause)
	return &Logger{sessionID: getSessionID(), component: component, sugar: sugar}
}

// Nop returns a logger that discards everything, for tests and library
// callers that pass no logger.
func Nop(component string) *Logger {
	return &Logger{component: component, sugar: zap.NewNop().Sugar()}
}

func (l *Logger) Debugf(format string, v ...interface{}) { l.sugar.Debugf(format, v...) }
func (l *Logger) Infof(format string, v ...interface{})  { l.sugar.Infof(format, v...) }
func (l *Logger) Warnf(format string, v ...interface{})  { l.sugar.Warnf(format, v...) }
func (l *Logger) Errorf(format string, v ...interface{}) { l.sugar.Errorf(format, v...) }

// With returns a logger that adds the key/value pairs to every entry. It
// shares the parent's file; only the parent closes it.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		sessionID: l.sessionID,
		component: l.component,
		sugar:     l.sugar.With(keysAndValues...),
		logPath:   l.logPath,
	}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// SessionID returns the id shared by every logger of the process.
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the log file, or "" for stderr and no-op loggers.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close flushes and closes the log file. Later calls do nothing.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		_ = l.sugar.Sync()
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}
