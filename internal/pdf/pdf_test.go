package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-renamer/internal/runner"
)

func TestShowText(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n(Invoice No: 123) Tj\nT*\n[(To) -120 (tal) 5 (: 9.50)] TJ\n0 -14 Td\n(Line \\(two\\)) Tj\nET\n")
	assert.Equal(t, "Invoice No: 123\nTotal: 9.50\nLine (two)", showText(stream))
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "a b", unescape([]byte(`a\040b`)))
	assert.Equal(t, "x\ny", unescape([]byte(`x\ny`)))
	assert.Equal(t, `back\slash`, unescape([]byte(`back\\slash`)))
	assert.Equal(t, "trailing\\", unescape([]byte(`trailing\`)))
}

func TestTextLayerPrefersPdftotext(t *testing.T) {
	fake := &runner.Fake{Handler: func(name string, args []string) ([]byte, []byte, error) {
		return []byte("发票号码：123\f第二页"), nil, nil
	}}
	tl := NewTextLayer("", fake, nil)
	tl.decode = func(string) (string, error) {
		t.Fatal("fallback must not run")
		return "", nil
	}

	txt, err := tl.Text(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Contains(t, txt, "发票号码")

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "pdftotext", calls[0].Name)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-eol", "unix", "a.pdf", "-"}, calls[0].Args)
}

func TestTextLayerFallsBackToDecoder(t *testing.T) {
	fake := &runner.Fake{Handler: func(string, []string) ([]byte, []byte, error) {
		return nil, []byte("not found"), errors.New("exec: pdftotext: not found")
	}}
	tl := NewTextLayer("", fake, nil)
	tl.decode = func(string) (string, error) { return "合计 1.00", nil }

	txt, err := tl.Text(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "合计 1.00", txt)
}

func TestTextLayerBlankIsNoTextLayer(t *testing.T) {
	fake := &runner.Fake{Handler: func(string, []string) ([]byte, []byte, error) {
		return []byte(" \n\f\n"), nil, nil
	}}
	tl := NewTextLayer("", fake, nil)
	tl.decode = func(string) (string, error) { return "\f", nil }

	_, err := tl.Text(context.Background(), "scan.pdf")
	assert.ErrorIs(t, err, ErrNoTextLayer)
}
