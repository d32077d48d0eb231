package filehandler

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/philipp01105/duplog/internal/selflog"
)

// backupTimeFormat sorts lexically in chronological order.
const backupTimeFormat = "2006-01-02T15-04-05.000000000"

// rotateIfNeeded checks and performs rotation if needed. h.mu is held.
func (h *FileHandler) rotateIfNeeded() error {
	if !h.cfg.Rotating() {
		return nil
	}

	needRotate := false

	// Check size-based rotation
	if h.cfg.MaxSize > 0 && h.out.currentSize >= h.cfg.MaxSize {
		needRotate = true
	}

	// Check time-based rotation (by age)
	if h.cfg.MaxAge > 0 && time.Since(h.out.lastRotateTime) >= h.cfg.MaxAge {
		needRotate = true
	}

	// Check interval-based rotation
	if h.cfg.RotateInterval > 0 && time.Since(h.out.lastRotateTime) >= h.cfg.RotateInterval {
		needRotate = true
	}

	if !needRotate {
		return nil
	}

	return h.rotate()
}

// rotate closes the current file, renames it with a timestamp suffix and
// opens a fresh one. h.mu is held.
func (h *FileHandler) rotate() error {
	path := h.cfg.Path()
	if err := h.out.close(); err != nil {
		return h.reopenAfter(err)
	}

	rotatedName := backupName(path, time.Now())
	if err := os.Rename(path, rotatedName); err != nil {
		return h.reopenAfter(err)
	}

	out, err := openOutput(h.cfg, false)
	if err != nil {
		h.out = nil
		return err
	}
	h.out = out

	if h.cfg.Compress {
		if err := compressFile(rotatedName); err != nil {
			selflog.Report(selflog.CodeRotate, "compress rotated file", err, zap.String("path", rotatedName))
		}
	}
	if h.cfg.MaxBackups > 0 {
		h.cleanupOldBackups(path)
	}
	return nil
}

// reopenAfter continues on the current path after a failed rotation
// step. The closed output is never kept. h.mu is held.
func (h *FileHandler) reopenAfter(err error) error {
	out, openErr := openOutput(h.cfg, false)
	if openErr != nil {
		h.out = nil
		return fmt.Errorf("rotation failed: %v, reopen failed: %w", err, openErr)
	}
	h.out = out
	return err
}

// backupName returns a backup path for t that is not taken yet.
func backupName(path string, t time.Time) string {
	base := path + "." + t.Format(backupTimeFormat)
	name := base
	for i := 1; exists(name) || exists(name+".gz"); i++ {
		name = base + "-" + strconv.Itoa(i)
	}
	return name
}

func exists(name string) bool {
	_, err := os.Lstat(name)
	return err == nil
}

// cleanupOldBackups removes the oldest backups beyond MaxBackups.
func (h *FileHandler) cleanupOldBackups(path string) {
	backups, err := listBackups(path)
	if err != nil {
		selflog.Report(selflog.CodeRotate, "list backups", err, zap.String("path", path))
		return
	}
	if len(backups) <= h.cfg.MaxBackups {
		return
	}
	for _, file := range backups[:len(backups)-h.cfg.MaxBackups] {
		if err := os.Remove(file); err != nil {
			selflog.Report(selflog.CodeRotate, "remove old backup", err, zap.String("path", file))
		}
	}
}

// compressFile replaces name with name.gz.
func compressFile(name string) (err error) {
	src, err := os.Open(name)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(name+".gz", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(name + ".gz")
		}
	}()

	zw := gzip.NewWriter(dst)
	if _, err = io.Copy(zw, src); err != nil {
		zw.Close()
		dst.Close()
		return err
	}
	if err = zw.Close(); err != nil {
		dst.Close()
		return err
	}
	if err = dst.Close(); err != nil {
		return err
	}
	src.Close()
	return os.Remove(name)
}
