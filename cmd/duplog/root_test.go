package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (stderr, stdout string, err error) {
	t.Helper()
	var e, o bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &e, &o)
	cmd.SetArgs(args)
	cmd.SetOut(&o)
	cmd.SetErr(&e)
	err = cmd.Execute()
	return e.String(), o.String(), err
}

func TestTee_FileAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.log")

	stderr, stdout, err := run(t, "starting\ndisk full\n",
		"--file", path, "--dup-stderr", "warn", "--dup-stdout", "all", "--line-level", "warn", "--tag", "job")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "[WARN] {job}"))
	assert.Contains(t, stderr, "{job} disk full\n")
	assert.Contains(t, stdout, "{job} starting\n")
}

func TestTee_LineLevelBelowThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quiet.log")

	stderr, _, err := run(t, "chatter\n", "--file", path, "--dup-stderr", "all", "--line-level", "debug")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestTee_ConfigFileWithFlagOverride(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "log.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
level: debug
duplicateStdout: none
file:
  directory: `+dir+`
  basename: fromcfg
`), 0644))

	_, stdout, err := run(t, "hello\n", "--config", cfgPath, "--dup-stdout", "info", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"message":"hello"`)

	data, err := os.ReadFile(filepath.Join(dir, "fromcfg.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] hello")
}

func TestTee_InvalidFlags(t *testing.T) {
	_, _, err := run(t, "", "--dup-stderr", "sometimes")
	assert.Error(t, err)

	_, _, err = run(t, "", "--line-level", "loud")
	assert.Error(t, err)
}

func TestFilesCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "log.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"file": {"directory": "`+filepath.ToSlash(dir)+`", "basename": "svc"}}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "svc.log"), []byte("current\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "svc.log.2026-01-01T00-00-00.000000000"), []byte("old\n"), 0644))

	_, stdout, err := run(t, "", "files", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "svc.log"),
		filepath.Join(dir, "svc.log.2026-01-01T00-00-00.000000000"),
	}, strings.Fields(stdout))
}

func TestFilesCommand_LeavesLogUntouched(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	cfgPath := filepath.Join(dir, "log.yaml")
	cfg := "file:\n  directory: " + filepath.ToSlash(logDir) + "\n  basename: app\n  truncate: true\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	_, stdout, err := run(t, "", "files", "--config", cfgPath)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	_, err = os.Stat(logDir)
	assert.True(t, os.IsNotExist(err), "files created the log directory")

	require.NoError(t, os.MkdirAll(logDir, 0755))
	path := filepath.Join(logDir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte("precious line\n"), 0644))

	_, stdout, err = run(t, "", "files", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, path+"\n", stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "precious line\n", string(data))
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte("level: warn\n"), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("level: loud\n"), 0644))

	_, stdout, err := run(t, "", "check", good)
	require.NoError(t, err)
	assert.Equal(t, good+": ok\n", stdout)

	_, _, err = run(t, "", "check", bad)
	assert.Error(t, err)
}

func TestSplitPath(t *testing.T) {
	dir, base, suffix := splitPath("/var/log/job.log")
	assert.Equal(t, "/var/log", dir)
	assert.Equal(t, "job", base)
	assert.Equal(t, "log", suffix)

	dir, base, suffix = splitPath("app")
	assert.Equal(t, ".", dir)
	assert.Equal(t, "app", base)
	assert.Equal(t, "", suffix)
}
