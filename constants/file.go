package constants

import "strings"

// Document formats understood by the extraction cascade.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// FileTypes holds the document formats a rename job can carry.
var FileTypes = []string{PDF, IMAGE}

// AllowedExtensions holds the invoice file extensions picked up from a source folder.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"bmp":  {},
	"gif":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns PDF, IMAGE or "" for an extension (with or without the dot).
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "png", "jpg", "jpeg", "bmp", "gif":
		return IMAGE
	default:
		return ""
	}
}

// MimeForExt returns the MIME type used when an image is sent to a vision model.
func MimeForExt(ext string) string {
	switch NormalizeExt(ext) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "bmp":
		return "image/bmp"
	case "gif":
		return "image/gif"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

const (
	// BackupDirPrefix is the name prefix of the per-run working directory.
	BackupDirPrefix = "rename"
	// JournalFileName is the sqlite journal written inside the backup directory.
	JournalFileName = "rename_journal.db"
	// ReportFileName is the XLSX summary written inside the backup directory.
	ReportFileName = "rename_report.xlsx"
	// CollisionTimeLayout is appended to a name that already exists.
	CollisionTimeLayout = "20060102150405"
	// MaxVisionMBDefault caps the image size sent to a vision model.
	MaxVisionMBDefault = 10
)
