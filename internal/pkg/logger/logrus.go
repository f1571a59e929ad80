package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/doeshing/benchhist/internal/ports"
)

// LogrusLogger routes ports.Logger calls to a logrus.Logger.
type LogrusLogger struct {
	entry *logrus.Logger
}

// NewLogrus builds a logger writing to stderr. level is a logrus level name;
// verbose forces debug. format "json" selects the JSON formatter.
func NewLogrus(level, format string, verbose bool) *LogrusLogger {
	return NewLogrusTo(os.Stderr, level, format, verbose)
}

// Discard returns a logger that drops every entry.
func Discard() *LogrusLogger {
	return NewLogrusTo(io.Discard, "panic", "text", false)
}

// NewLogrusTo is NewLogrus with an explicit writer.
func NewLogrusTo(out io.Writer, level, format string, verbose bool) *LogrusLogger {
	l := logrus.New()
	l.SetOutput(out)
	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if verbose {
		lvl = logrus.DebugLevel
	}
	l.SetLevel(lvl)
	return &LogrusLogger{entry: l}
}

func (l *LogrusLogger) Debug(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields map[string]interface{}) {
	l.entry.WithFields(fields).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, err error, fields map[string]interface{}) {
	l.entry.WithFields(fields).WithError(err).Error(msg)
}

var _ ports.Logger = (*LogrusLogger)(nil)
