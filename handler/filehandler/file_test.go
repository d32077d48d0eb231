package filehandler

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipp01105/duplog/core"
	"github.com/philipp01105/duplog/handler"
)

func write(t *testing.T, h *FileHandler, level core.Level, tag, msg string) {
	t.Helper()
	err := h.Write(core.NewNow(), &core.Entry{Level: level, Tag: tag, Message: msg})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestFileHandler_WriteIsBufferedUntilFlush(t *testing.T) {
	dir := t.TempDir()
	h, err := NewFileHandler(handler.FileConfig{Directory: dir, Basename: "app"})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Shutdown()

	write(t, h, core.InfoLevel, "db", "first")
	path := filepath.Join(dir, "app.log")
	if got := readFile(t, path); got != "" {
		t.Errorf("expected buffered output, file has %q", got)
	}

	if err := h.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := readFile(t, path); !strings.Contains(got, "[INFO] {db} first\n") {
		t.Errorf("unexpected file content %q", got)
	}
}

func TestFileHandler_MaxBackups(t *testing.T) {
	dir := t.TempDir()

	h, err := NewFileHandler(handler.FileConfig{
		Directory:  dir,
		Basename:   "test",
		MaxSize:    100, // Small size to trigger rotation
		MaxBackups: 2,   // Keep only 2 backups
	})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Shutdown()

	// Write enough to trigger multiple rotations
	for i := 0; i < 100; i++ {
		write(t, h, core.InfoLevel, "", "This is a test message that will trigger rotation")
		if err := h.Flush(); err != nil {
			t.Fatal(err)
		}
	}

	files, err := h.ExistingFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("expected current file and 2 backups, got %v", files)
	}
	if files[0] != filepath.Join(dir, "test.log") {
		t.Errorf("expected current file first, got %v", files)
	}
	if files[1] >= files[2] {
		t.Errorf("backups not sorted: %v", files[1:])
	}
}

func TestFileHandler_RotateInterval(t *testing.T) {
	dir := t.TempDir()

	h, err := NewFileHandler(handler.FileConfig{
		Directory:      dir,
		Basename:       "test",
		RotateInterval: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Shutdown()

	write(t, h, core.InfoLevel, "", "first")

	// Wait for rotation interval
	time.Sleep(80 * time.Millisecond)

	// Write another log - should trigger rotation
	write(t, h, core.InfoLevel, "", "second")
	if err := h.Flush(); err != nil {
		t.Fatal(err)
	}

	files, err := h.ExistingFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected one backup, got %v", files)
	}
	if !strings.Contains(readFile(t, files[1]), "first") {
		t.Error("backup does not hold the first record")
	}
	current := readFile(t, files[0])
	if !strings.Contains(current, "second") || strings.Contains(current, "first") {
		t.Errorf("unexpected current content %q", current)
	}
}

func TestFileHandler_CompressBackups(t *testing.T) {
	dir := t.TempDir()
	h, err := NewFileHandler(handler.FileConfig{
		Directory: dir,
		Basename:  "zip",
		MaxSize:   10,
		Compress:  true,
	})
	require.NoError(t, err)
	defer h.Shutdown()

	write(t, h, core.WarnLevel, "", "rotated away")
	require.NoError(t, h.Flush())
	write(t, h, core.WarnLevel, "", "current")
	require.NoError(t, h.Flush())

	files, err := h.ExistingFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.True(t, strings.HasSuffix(files[1], ".gz"), "backup %s", files[1])

	f, err := os.Open(files[1])
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rotated away")
}

func TestFileHandler_MinLevel(t *testing.T) {
	dir := t.TempDir()
	h, err := NewFileHandler(handler.FileConfig{Directory: dir, Basename: "lvl", MinLevel: core.WarnLevel})
	require.NoError(t, err)
	defer h.Shutdown()

	assert.Equal(t, core.FilterWarn, h.MaxLevel())

	write(t, h, core.InfoLevel, "", "dropped")
	write(t, h, core.ErrorLevel, "", "kept")
	require.NoError(t, h.Flush())

	content := readFile(t, h.Path())
	assert.NotContains(t, content, "dropped")
	assert.Contains(t, content, "kept")
}

func TestFileHandler_Validate(t *testing.T) {
	dir := t.TempDir()
	h, err := NewFileHandler(handler.FileConfig{Directory: dir, Basename: "v"})
	require.NoError(t, err)
	defer h.Shutdown()

	write(t, h, core.InfoLevel, "db", "connected")
	write(t, h, core.ErrorLevel, "http", "failed")

	require.NoError(t, h.Validate([]handler.Expectation{
		{Level: "INFO", Tag: "db", Message: "connected"},
		{Level: "ERROR", Tag: "http", Message: "failed"},
	}))
	assert.Error(t, h.Validate([]handler.Expectation{
		{Level: "INFO", Tag: "db", Message: "connected"},
	}))
	assert.Error(t, h.Validate([]handler.Expectation{
		{Level: "WARN", Tag: "db", Message: "connected"},
		{Level: "ERROR", Tag: "http", Message: "failed"},
	}))
}

func TestFileHandler_Reset(t *testing.T) {
	dir := t.TempDir()
	h, err := NewFileHandler(handler.FileConfig{Directory: dir, Basename: "one"})
	require.NoError(t, err)
	defer h.Shutdown()

	write(t, h, core.InfoLevel, "", "to one")
	require.NoError(t, h.Reset(handler.FileConfig{Directory: dir, Basename: "two", MinLevel: core.DebugLevel}))
	write(t, h, core.InfoLevel, "", "to two")
	require.NoError(t, h.Flush())

	assert.Contains(t, readFile(t, filepath.Join(dir, "one.log")), "to one")
	assert.Contains(t, readFile(t, filepath.Join(dir, "two.log")), "to two")
	assert.NotContains(t, readFile(t, filepath.Join(dir, "one.log")), "to two")

	cfg, err := h.Config()
	require.NoError(t, err)
	assert.Equal(t, "two", cfg.Basename)
	assert.Equal(t, "log", cfg.Suffix)
	assert.Equal(t, core.FilterDebug, h.MaxLevel())
}

func TestFileHandler_ResetFailureKeepsOutput(t *testing.T) {
	dir := t.TempDir()
	h, err := NewFileHandler(handler.FileConfig{Directory: dir, Basename: "keep"})
	require.NoError(t, err)
	defer h.Shutdown()

	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	err = h.Reset(handler.FileConfig{Directory: filepath.Join(blocker, "sub"), Basename: "x"})
	require.Error(t, err)

	write(t, h, core.InfoLevel, "", "still here")
	require.NoError(t, h.Flush())
	assert.Contains(t, readFile(t, filepath.Join(dir, "keep.log")), "still here")
}

func TestFileHandler_Reopen(t *testing.T) {
	dir := t.TempDir()
	h, err := NewFileHandler(handler.FileConfig{Directory: dir, Basename: "app"})
	require.NoError(t, err)
	defer h.Shutdown()

	path := filepath.Join(dir, "app.log")
	moved := filepath.Join(dir, "app.log.moved")

	write(t, h, core.InfoLevel, "", "before")
	require.NoError(t, h.Flush())
	require.NoError(t, os.Rename(path, moved))

	require.NoError(t, h.Reopen())
	write(t, h, core.InfoLevel, "", "after")
	require.NoError(t, h.Flush())

	assert.Contains(t, readFile(t, moved), "before")
	assert.NotContains(t, readFile(t, moved), "after")
	assert.Contains(t, readFile(t, path), "after")
}

func TestFileHandler_Truncate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.log")
	require.NoError(t, os.WriteFile(path, []byte("old line\n"), 0644))

	appendH, err := NewFileHandler(handler.FileConfig{Directory: dir, Basename: "t"})
	require.NoError(t, err)
	appendH.Shutdown()
	assert.Equal(t, "old line\n", readFile(t, path))

	h, err := NewFileHandler(handler.FileConfig{Directory: dir, Basename: "t", Truncate: true})
	require.NoError(t, err)
	h.Shutdown()
	assert.Empty(t, readFile(t, path))
}

func TestFileHandler_ShutdownFlushesAndCloses(t *testing.T) {
	dir := t.TempDir()
	h, err := NewFileHandler(handler.FileConfig{Directory: dir, Basename: "s"})
	require.NoError(t, err)

	write(t, h, core.InfoLevel, "", "persisted")
	h.Shutdown()
	h.Shutdown()

	assert.Contains(t, readFile(t, filepath.Join(dir, "s.log")), "persisted")
	assert.ErrorIs(t, h.Write(core.NewNow(), &core.Entry{Level: core.InfoLevel}), handler.ErrClosed)
	assert.NoError(t, h.Flush())
	assert.ErrorIs(t, h.Reopen(), handler.ErrClosed)
}

func TestFileHandler_Async(t *testing.T) {
	dir := t.TempDir()
	h, err := NewFileHandler(handler.FileConfig{
		Directory:  dir,
		Basename:   "async",
		Async:      true,
		BufferSize: 1000,
	})
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		write(t, h, core.InfoLevel, "", "queued")
	}
	require.NoError(t, h.Flush())
	assert.Equal(t, 100, strings.Count(readFile(t, h.Path()), "queued"))
	assert.Equal(t, uint64(100), h.Stats().ProcessedTotal)

	write(t, h, core.InfoLevel, "", "last")
	h.Shutdown()
	assert.Contains(t, readFile(t, h.Path()), "last")
}

func TestFileHandler_ExistingFilesWhenMissing(t *testing.T) {
	dir := t.TempDir()
	h, err := NewFileHandler(handler.FileConfig{Directory: dir, Basename: "gone"})
	require.NoError(t, err)
	h.Shutdown()
	require.NoError(t, os.Remove(filepath.Join(dir, "gone.log")))

	files, err := h.ExistingFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileHandler_ImplementsFileWriter(t *testing.T) {
	var _ handler.FileWriter = (*FileHandler)(nil)
	var _ handler.StatsProvider = (*FileHandler)(nil)
}

func TestListFiles_DoesNotCreateOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")

	files, err := ListFiles(handler.FileConfig{Directory: dir, Basename: "app", Truncate: true})
	require.NoError(t, err)
	assert.Empty(t, files)
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "app.log")
	backup := path + ".2026-03-01T00-00-00.000000000.gz"
	require.NoError(t, os.WriteFile(path, []byte("keep\n"), 0644))
	require.NoError(t, os.WriteFile(backup, nil, 0644))

	files, err = ListFiles(handler.FileConfig{Directory: dir, Basename: "app", Truncate: true})
	require.NoError(t, err)
	assert.Equal(t, []string{path, backup}, files)
	assert.Equal(t, "keep\n", readFile(t, path))
}

func TestFileHandler_RotateRecoversFromCloseFailure(t *testing.T) {
	dir := t.TempDir()
	h, err := NewFileHandler(handler.FileConfig{Directory: dir, Basename: "rc", MaxSize: 10})
	require.NoError(t, err)
	defer h.Shutdown()

	write(t, h, core.InfoLevel, "", "first record")
	require.NoError(t, h.Flush())

	// Sync fails on the closed file, so the next rotation cannot close it.
	require.NoError(t, h.out.file.Close())
	err = h.Write(core.NewNow(), &core.Entry{Level: core.InfoLevel, Message: "lost"})
	require.Error(t, err)

	write(t, h, core.InfoLevel, "", "third record")
	require.NoError(t, h.Flush())
	assert.Contains(t, readFile(t, h.Path()), "third record")
}
