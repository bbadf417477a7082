package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// DefaultPath is the log file used when the caller does not pick one.
const DefaultPath = "appium-vision.log"

var (
	globalLogger *log.Logger
	logFile      *os.File
	console      bool
	mu           sync.Mutex
)

// Init opens the log file at logPath and routes all subsequent log
// output to it. Calling Init again closes the previous file first.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	globalLogger = log.New(output(), "", log.Ltime|log.Lmicroseconds)

	return nil
}

// EnableConsole mirrors log output to stderr in addition to the log
// file. Used by the verbose CLI flag.
func EnableConsole(on bool) {
	mu.Lock()
	defer mu.Unlock()

	console = on
	if logFile != nil || console {
		globalLogger = log.New(output(), "", log.Ltime|log.Lmicroseconds)
	}
}

func output() io.Writer {
	switch {
	case logFile != nil && console:
		return io.MultiWriter(logFile, os.Stderr)
	case logFile != nil:
		return logFile
	case console:
		return os.Stderr
	default:
		return io.Discard
	}
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	logf("[INFO] ", format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	logf("[DEBUG] ", format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	logf("[ERROR] ", format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	logf("[WARN] ", format, v...)
}

func logf(level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Printf(level+format, v...)
	}
}

// GetWriter returns the underlying log writer for subprocess output.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}
