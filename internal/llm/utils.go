package llm

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/invoice-renamer/constants"
)

// DataURL encodes image bytes as a data URI for image_url content parts.
func DataURL(image []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
}

// ReadImage loads an image file for the vision path, refusing files over maxMB.
func ReadImage(path string, maxMB int) ([]byte, string, error) {
	if maxMB <= 0 {
		maxMB = constants.MaxVisionMBDefault
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if st.Size() > int64(maxMB)*1024*1024 {
		return nil, "", fmt.Errorf("image %s is larger than %d MB", filepath.Base(path), maxMB)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return b, constants.MimeForExt(filepath.Ext(path)), nil
}
