/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package logger wraps sirupsen/logrus behind the small Logger type
// the gateway's components need: leveled entries plus a dedicated Access
// entry shape for the dispatcher's request log line. Scoped to a single
// logrus-backed implementation — a single-process filesystem gateway has
// no deployment target for a pluggable multi-sink hook chain (syslog,
// gorm, hclog, file rotation).
package logger

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Level is one of the values LOG_LEVEL can select.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) logrusLevel() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Format selects between the text and JSON formatter options.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Logger is the structured logger every ambient and domain component
// receives, satisfying dispatcher.AccessLogger via Access.
type Logger struct {
	entry *logrus.Entry
}

// New builds a Logger writing to out (os.Stdout in production, a buffer
// in tests) at the given level and format.
func New(level Level, format Format, out io.Writer) *Logger {
	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(level.logrusLevel())
	if format == FormatJSON {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return &Logger{entry: logrus.NewEntry(base)}
}

// Default returns a Logger at info level writing to stderr, the fallback
// used before configuration has loaded.
func Default() *Logger {
	return New(LevelInfo, FormatText, os.Stderr)
}

// With returns a child Logger carrying additional structured fields,
// backed directly by logrus.WithFields.
func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *Logger) Debug(msg string) { l.entry.Debug(msg) }
func (l *Logger) Info(msg string)  { l.entry.Info(msg) }
func (l *Logger) Warn(msg string)  { l.entry.Warn(msg) }
func (l *Logger) Error(msg string) { l.entry.Error(msg) }

// Access emits one structured entry per handled request, satisfying
// dispatcher.AccessLogger: method/path/status/size/duration on a
// single Entry.
func (l *Logger) Access(method, path string, status int, bytes int64, d time.Duration) {
	l.entry.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   status,
		"bytes":    bytes,
		"duration": d.String(),
	}).Info("request")
}

// AuthTrace emits one structured entry per failed SigV4 host-candidate
// attempt, for the optional AUTH_DEBUG_LOG sink.
func (l *Logger) AuthTrace(candidateHost, canonicalRequestHash string) {
	l.entry.WithFields(logrus.Fields{
		"candidate_host":    candidateHost,
		"canonical_request": canonicalRequestHash,
	}).Debug("sigv4 candidate mismatch")
}
