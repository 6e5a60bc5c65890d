package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassamadnan/mailfilter/config"
	"github.com/bassamadnan/mailfilter/runlog"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configDir, configName, logDir, verbose, dryRun = ".", config.DefaultName, ".", false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

const sampleEmail = "From: \"Ana Souza\" <ana@example.com>\r\n" +
	"Subject: Candidatura - Dev\r\n" +
	"Date: Thu, 2 May 2024 10:31:07 -0300\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"x\"\r\n" +
	"\r\n" +
	"--x\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Nome: Ana Souza\r\n" +
	"Telefone: 11 99999-0000\r\n" +
	"Cargo: Dev\r\n" +
	"--x\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"cv.pdf\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"JVBERi0xLjQ=\r\n" +
	"--x--\r\n"

func TestInspect_DefaultLabels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.eml")
	require.NoError(t, os.WriteFile(path, []byte(sampleEmail), 0o644))

	out, err := execute(t, "inspect", path, "--config-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Candidatura - Dev")
	assert.Contains(t, out, "cv.pdf")
	assert.Contains(t, out, "no line labelled Vaga")
}

func TestInspect_ConfiguredLabels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.eml")
	require.NoError(t, os.WriteFile(path, []byte(sampleEmail), 0o644))
	require.NoError(t, os.WriteFile(config.Path(dir, ""), []byte(`{
  "spreadsheet": {"path": "c.xlsx"},
  "candidate_folders": {"path": "c"},
  "search": {"subject": "Candidatura"},
  "labels": {"role": "Cargo"}
}`), 0o644))

	out, err := execute(t, "inspect", path, "--config-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "11 99999-0000")
	assert.NotContains(t, out, "missing field")
}

func TestInspect_MissingFile(t *testing.T) {
	_, err := execute(t, "inspect", filepath.Join(t.TempDir(), "none.eml"))
	assert.Error(t, err)
}

func TestRun_MissingConfigIsJournalled(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "run", "--config-dir", dir, "--log-dir", dir)
	require.Error(t, err)

	b, err := os.ReadFile(filepath.Join(dir, runlog.FileName(config.DefaultRunName)))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], ";rpa-mail-filter;OK;rpa-mail-filter started")
	assert.Contains(t, lines[1], ";NOK;error loading configuration")
	assert.Contains(t, lines[2], ";OK;rpa-mail-filter finished")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "mailfilter dev\n", out)
}
