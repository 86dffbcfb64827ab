// Package ingest lists invoice documents in a folder and watches it for new ones.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-renamer/internal/common"
)

// Document is one regular file found directly in a folder.
type Document struct {
	Path      string
	Name      string
	Ext       string // lowercased, without the dot
	Size      int64
	Mode      fs.FileMode
	ModTime   time.Time
	Supported bool
}

// DirStats summarizes a listing.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Skipped   uint32
	Hidden    uint32
	Directory uint32
}

// ListDocuments returns the regular files directly inside dir, sorted by name.
// Subdirectories are never entered. Files with an unsupported extension are
// returned with Supported=false so the caller can report them.
func ListDocuments(dir string, skipHidden bool) ([]Document, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(dir) == "" {
		return nil, stats, common.NewAppError(common.CodeConfig, "directory is required", common.ErrInvalidInput)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, stats, common.NewAppError(common.CodeIO, "directory not found: "+dir, common.ErrNotFound)
		}
		return nil, stats, fmt.Errorf("read dir: %w", err)
	}

	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		stats.Scanned++
		if e.IsDir() {
			stats.Directory++
			continue
		}
		if skipHidden && IsHidden(e.Name()) {
			stats.Hidden++
			continue
		}
		if !e.Type().IsRegular() {
			stats.Skipped++
			continue
		}
		info, err := e.Info()
		if err != nil {
			stats.Skipped++
			continue
		}
		ext := filepath.Ext(e.Name())
		d := Document{
			Path:      filepath.Join(dir, e.Name()),
			Name:      e.Name(),
			Ext:       strings.TrimPrefix(strings.ToLower(ext), "."),
			Size:      info.Size(),
			Mode:      info.Mode(),
			ModTime:   info.ModTime(),
			Supported: AllowedExt(ext),
		}
		if d.Supported {
			stats.Matched++
		} else {
			stats.Skipped++
		}
		docs = append(docs, d)
	}
	return docs, stats, nil
}

// HashFile returns the hex sha256 of the file content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", common.WrapError(err, "open "+filepath.Base(path))
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", filepath.Base(path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
