package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func TestJournal_LineFormat(t *testing.T) {
	dir := t.TempDir()
	j := New(dir, "rpa-mail-filter", nil)
	assert.Equal(t, filepath.Join(dir, "log_rpa-mail-filter.txt"), j.Path())

	j.Start()
	j.Success("message 18f processed")
	j.Error("message 18g: missing field")
	j.End()

	lines := readLines(t, j.Path())
	require.Len(t, lines, 4)

	want := [][]string{
		{"rpa-mail-filter", "OK", "rpa-mail-filter started"},
		{"rpa-mail-filter", "OK", "message 18f processed"},
		{"rpa-mail-filter", "NOK", "message 18g: missing field"},
		{"rpa-mail-filter", "OK", "rpa-mail-filter finished"},
	}
	for i, line := range lines {
		fields := strings.Split(line, ";")
		require.Len(t, fields, 4, line)

		_, err := time.Parse(timeLayout, fields[0])
		assert.NoError(t, err, "timestamp %q", fields[0])
		assert.Equal(t, want[i], fields[1:])
	}
}

func TestJournal_AppendsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	New(dir, "nightly", nil).Success("first")
	New(dir, "nightly", nil).Success("second")

	lines := readLines(t, filepath.Join(dir, FileName("nightly")))
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], ";first"))
	assert.True(t, strings.HasSuffix(lines[1], ";second"))
}

func TestJournal_MessageKeptOnOneLine(t *testing.T) {
	dir := t.TempDir()
	j := New(dir, "run", nil)
	j.Error("googleapi: Error 500;\nbackend error")

	lines := readLines(t, j.Path())
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], ";NOK;googleapi: Error 500, backend error"), lines[0])
}

func TestJournal_EchoesToConsole(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	j := New(t.TempDir(), "run", zap.New(core))

	j.Success("ok line")
	j.Error("bad line")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "ok line", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "run", entries[1].ContextMap()["run"])
}

func TestNewConsole(t *testing.T) {
	logger, err := NewConsole(true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewConsole(false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
