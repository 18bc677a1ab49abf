package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

/**
Every entry carries the fields attached to its context with WithField, so a
line written by a worker can be traced to its run and document.
*/

var (
	logger  = newLogger()
	outMu   sync.Mutex
	outFile *os.File
)

type fieldsKey struct{}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableQuote: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetOutput accepts "stdout", "stderr" or a file path, which is appended to.
func SetOutput(output string) {
	outMu.Lock()
	defer outMu.Unlock()
	var w io.Writer
	switch strings.ToLower(output) {
	case ``, `stderr`:
		w = os.Stderr
	case `stdout`:
		w = os.Stdout
	default:
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger.WithError(err).Warn("Unable to open log file, using stderr ", output)
			w = os.Stderr
		} else {
			w = file
		}
	}
	if outFile != nil && outFile != w {
		_ = outFile.Close()
		outFile = nil
	}
	if file, ok := w.(*os.File); ok && file != os.Stdout && file != os.Stderr {
		outFile = file
	}
	logger.SetOutput(w)
}

// SetWriter is used by tests that capture log output.
func SetWriter(w io.Writer) {
	logger.SetOutput(w)
}

func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warn("Unknown log level ", level, ", keeping ", logger.GetLevel().String())
		return
	}
	logger.SetLevel(lvl)
}

func SetJSON(json bool) {
	if json {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableQuote: true})
	}
}

// WithField returns a context whose log entries include key=value.
func WithField(ctx context.Context, key string, value any) context.Context {
	fields := logrus.Fields{}
	for k, v := range contextFields(ctx) {
		fields[k] = v
	}
	fields[key] = value
	return context.WithValue(ctx, fieldsKey{}, fields)
}

func contextFields(ctx context.Context) logrus.Fields {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).(logrus.Fields)
	return fields
}

func entry(ctx context.Context) *logrus.Entry {
	return logger.WithFields(contextFields(ctx))
}

func Debug(ctx context.Context, args ...any) {
	entry(ctx).Debug(join(args))
}

func Info(ctx context.Context, args ...any) {
	entry(ctx).Info(join(args))
}

func Warn(ctx context.Context, args ...any) {
	entry(ctx).Warn(join(args))
}

func join(args []any) string {
	return strings.TrimSuffix(fmt.Sprintln(args...), "\n")
}
