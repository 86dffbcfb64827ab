package rename

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/common"
	"github.com/joseph-ayodele/invoice-renamer/internal/ingest"
)

const maxBackupAttempts = 32

// CreateBackupDir creates <parent(src)>/rename_<8 hex> and returns its path.
// The suffix is re-rolled while the candidate equals src or already exists.
func CreateBackupDir(src string) (string, error) {
	abs, err := filepath.Abs(strings.TrimRight(src, string(os.PathSeparator)))
	if err != nil {
		return "", err
	}
	parent := filepath.Dir(abs)

	for i := 0; i < maxBackupAttempts; i++ {
		suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
		dir := filepath.Join(parent, constants.BackupDirPrefix+"_"+suffix)
		if dir == abs {
			continue
		}
		// Mkdir fails if another run created it first; roll again
		if err := os.Mkdir(dir, 0o755); err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return "", err
		}
		return dir, nil
	}
	return "", fmt.Errorf("no free backup directory name under %s: %w", parent, common.ErrInternal)
}

// CopyFiles copies every regular file directly in src into dst, keeping mode
// and modification time. When only is non-empty just those base names are
// copied. Returns the number of files copied.
func CopyFiles(src, dst string, only []string) (int, error) {
	docs, _, err := ingest.ListDocuments(src, false)
	if err != nil {
		return 0, err
	}
	var want map[string]bool
	if len(only) > 0 {
		want = make(map[string]bool, len(only))
		for _, n := range only {
			want[filepath.Base(n)] = true
		}
	}

	n := 0
	for _, d := range docs {
		if want != nil && !want[d.Name] {
			continue
		}
		if err := copyFile(d, filepath.Join(dst, d.Name)); err != nil {
			return n, fmt.Errorf("copy %s: %w", d.Name, err)
		}
		n++
	}
	return n, nil
}

func copyFile(d ingest.Document, to string) (err error) {
	in, err := os.Open(d.Path)
	if err != nil {
		return err
	}
	defer func(in *os.File) {
		_ = in.Close()
	}(in)

	out, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_EXCL, d.Mode.Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	// umask may have narrowed the mode at create time
	if err = out.Chmod(d.Mode.Perm()); err != nil {
		return err
	}
	return os.Chtimes(to, d.ModTime, d.ModTime)
}
