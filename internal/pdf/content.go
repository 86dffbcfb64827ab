package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// decodeWithPdfcpu walks each page content stream and keeps the literal
// strings shown by Tj, TJ and ' operators. Hex strings of CID-keyed fonts are
// skipped, so scanned or CID-only files come back empty.
func decodeWithPdfcpu(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}

	pages := make([]string, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil || r == nil {
			pages = append(pages, "")
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, showText(data))
	}
	return strings.Join(pages, "\f"), nil
}

var reLiteral = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// showText extracts text-showing operators from a content stream, one output
// line per text line (T*, ' and Td/TD with a vertical move start a new line).
func showText(stream []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(stream, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		switch {
		case len(line) == 0:
			continue
		case bytes.Equal(line, []byte("T*")), bytes.HasSuffix(line, []byte("TD")), bytes.HasSuffix(line, []byte(" Td")):
			sb.WriteByte('\n')
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range reLiteral.FindAllSubmatch(line, -1) {
				sb.WriteString(unescape(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")):
			sb.WriteByte('\n')
			for _, m := range reLiteral.FindAllSubmatch(line, -1) {
				sb.WriteString(unescape(m[1]))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// unescape decodes the backslash escapes of a PDF literal string.
func unescape(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			val, n := 0, 0
			for n < 3 && i < len(raw) && raw[i] >= '0' && raw[i] <= '7' {
				val = val*8 + int(raw[i]-'0')
				i++
				n++
			}
			i--
			sb.WriteByte(byte(val))
		default:
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}
