// Package runlog writes the per-run audit journal and the console log.
//
// Journal lines have the form
//
//	2024-05-02 10:31:07.123456;rpa-mail-filter;OK;message
//
// and are appended to log_<runName>.txt. The file is opened and closed around
// every line so a crash never loses earlier lines.
package runlog

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

const (
	timeLayout = "2006-01-02 15:04:05.000000"

	statusOK  = "OK"
	statusNOK = "NOK"
)

// Journal records run milestones and per-message outcomes.
type Journal struct {
	runName string
	path    string
	file    *zap.Logger
	console *zap.Logger
}

// FileName returns the journal file name for a run.
func FileName(runName string) string {
	return "log_" + runName + ".txt"
}

// New creates a journal writing to dir/log_<runName>.txt. Every line is also
// echoed to console, which may be nil.
func New(dir, runName string, console *zap.Logger) *Journal {
	if console == nil {
		console = zap.NewNop()
	}
	path := filepath.Join(dir, FileName(runName))

	encCfg := zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "status",
		MessageKey:       "msg",
		LineEnding:       "\n",
		ConsoleSeparator: ";",
		EncodeTime:       zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(runName)
			if l >= zapcore.ErrorLevel {
				enc.AppendString(statusNOK)
				return
			}
			enc.AppendString(statusOK)
		},
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		&appendFile{path: path},
		zapcore.InfoLevel,
	)

	return &Journal{
		runName: runName,
		path:    path,
		file:    zap.New(core),
		console: console.With(zap.String("run", runName)),
	}
}

// Path is the journal file location.
func (j *Journal) Path() string { return j.path }

func (j *Journal) Start() {
	j.Success(fmt.Sprintf("%s started", j.runName))
}

func (j *Journal) End() {
	j.Success(fmt.Sprintf("%s finished", j.runName))
}

// Success appends an OK line.
func (j *Journal) Success(msg string) {
	msg = oneLine(msg)
	j.file.Info(msg)
	j.console.Info(msg)
}

// Error appends a NOK line.
func (j *Journal) Error(msg string) {
	msg = oneLine(msg)
	j.file.Error(msg)
	j.console.Error(msg)
}

// oneLine keeps multi-line error text from breaking the one-entry-per-line format.
func oneLine(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, ";", ",")), " ")
}

// appendFile is a zapcore.WriteSyncer that opens path in append mode for each write.
type appendFile struct {
	mu   sync.Mutex
	path string
}

func (a *appendFile) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := f.Write(p)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func (a *appendFile) Sync() error { return nil }

// NewConsole builds the human-facing logger. Each process gets a run_id so
// console output from overlapping runs can be told apart.
func NewConsole(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.DisableCaller = !verbose
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building console logger: %w", err)
	}
	return logger.With(zap.String("run_id", uuid.NewString())), nil
}
