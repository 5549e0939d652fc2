// Package logging provides session-scoped file logging for the lore CLI.
// All components of one invocation append to a single log file under
// ~/.lore/logs/, named by a per-process session id.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger writes structured lines for one component. All methods write
// unconditionally; there is no level filtering.
type Logger struct {
	sessionID string
	component string
	file      *os.File
	logger    *log.Logger
	logPath   string
	mu        sync.Mutex
	closeOnce sync.Once
}

var (
	sessionID     string
	sessionIDOnce sync.Once

	logDir   string
	initOnce sync.Once
	initErr  error
)

func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

func initLogDirectory() error {
	initOnce.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("logging: resolve home directory: %w", err)
			return
		}
		logDir = filepath.Join(homeDir, ".lore", "logs")
		if err := os.MkdirAll(logDir, 0o750); err != nil {
			initErr = fmt.Errorf("logging: create log directory: %w", err)
		}
	})
	return initErr
}

// New creates a logger for a component, appending to the session log file.
// When the file cannot be opened it falls back to stderr and returns the
// error alongside the still-usable logger.
func New(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return fallback(component, err), err
	}
	sessID := getSessionID()
	logPath := filepath.Join(logDir, sessID+"-lore.log")
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		err = fmt.Errorf("logging: open log file: %w", err)
		return fallback(component, err), err
	}
	return &Logger{
		sessionID: sessID,
		component: component,
		file:      file,
		logger:    log.New(file, "", 0),
		logPath:   logPath,
	}, nil
}

func fallback(component string, err error) *Logger {
	logger := log.New(os.Stderr, fmt.Sprintf("[%s] ", component), log.LstdFlags)
	logger.Printf("file logging unavailable, using stderr: %v", err)
	return &Logger{
		sessionID: getSessionID(),
		component: component,
		logger:    logger,
	}
}

func (l *Logger) write(level, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	l.logger.Printf("[%s] [%s] [%s] %s", timestamp, l.component, level, fmt.Sprintf(format, v...))
}

func (l *Logger) Debugf(format string, v ...any) { l.write("DEBUG", format, v...) }
func (l *Logger) Infof(format string, v ...any)  { l.write("INFO", format, v...) }
func (l *Logger) Warnf(format string, v ...any)  { l.write("WARN", format, v...) }
func (l *Logger) Errorf(format string, v ...any) { l.write("ERROR", format, v...) }

// SessionID returns the per-process session id.
func (l *Logger) SessionID() string { return l.sessionID }

// LogPath returns the log file path, or "" in stderr fallback mode.
func (l *Logger) LogPath() string { return l.logPath }

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}
