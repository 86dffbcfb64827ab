package rename

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-renamer/constants"
)

// UnnamedBase replaces an empty synthesized name.
const UnnamedBase = "unnamed"

var reIllegal = regexp.MustCompile(`[\\/:*?"<>|]`)

// SanitizeFilename replaces characters Windows forbids in file names with "_".
func SanitizeFilename(name string) string {
	name = reIllegal.ReplaceAllString(name, "_")
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return '_'
		}
		return r
	}, name)
}

// resolveCollision returns the name to rename self to inside dir. If base+ext
// is taken by another file, the time stamp is inserted before the extension
// and, if that is taken too, _1, _2, ... is appended to it.
func resolveCollision(dir, base, ext, self string, now time.Time) (string, bool) {
	name := base + ext
	if p := filepath.Join(dir, name); !exists(p) || samePath(p, self) {
		return name, false
	}
	stamped := base + now.Format(constants.CollisionTimeLayout)
	name = stamped + ext
	for i := 1; exists(filepath.Join(dir, name)); i++ {
		name = fmt.Sprintf("%s_%d%s", stamped, i, ext)
	}
	return name, true
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
