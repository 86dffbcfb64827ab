package cascade

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
	"github.com/joseph-ayodele/invoice-renamer/internal/ocr"
	"github.com/joseph-ayodele/invoice-renamer/internal/pdf"
)

const invoiceText = `发票号码：25117000000123456789
开票日期：2025年03月01日
购 名称：武汉东湖学院 销 名称：济南公司
合 计 ¥94.34 ¥5.66
开票人：王丽丽`

// missing the issue date
const partialText = `购 名称：武汉东湖学院 销 名称：济南公司
开票人：王丽丽`

type fakeText struct {
	text string
	err  error
}

func (f fakeText) Text(context.Context, string) (string, error) { return f.text, f.err }

type fakeOCR struct {
	text  string
	err   error
	calls int
}

func (f *fakeOCR) Extract(context.Context, string) (ocr.ExtractionResult, error) {
	f.calls++
	return ocr.ExtractionResult{Text: f.text}, f.err
}

type fakeAI struct {
	text       []fields.Result
	image      fields.Result
	textCalls  int
	imageCalls int
	inputs     []string
}

func (f *fakeAI) ExtractFromText(_ context.Context, text string) fields.Result {
	f.textCalls++
	f.inputs = append(f.inputs, text)
	if len(f.text) == 0 {
		return fields.NewResult(fields.DefaultTable())
	}
	r := f.text[0]
	f.text = f.text[1:]
	return r
}

func (f *fakeAI) ExtractFromImage(context.Context, []byte, string) fields.Result {
	f.imageCalls++
	return f.image
}

type fakeImager struct{ pages []int }

func (f *fakeImager) RenderJPEG(_ context.Context, _ string, page int) ([]byte, error) {
	f.pages = append(f.pages, page)
	return []byte{0xff, 0xd8, 0xff}, nil
}

func result(kv map[fields.Kind]string) fields.Result {
	r := fields.NewResult(fields.DefaultTable())
	for k, v := range kv {
		r.Set(k, v)
	}
	return r
}

func full() fields.Result {
	return result(map[fields.Kind]string{
		fields.SellerName:  "济南公司",
		fields.IssueDate:   "2025年03月01日",
		fields.TotalAmount: "94.34",
		fields.Preparer:    "王丽丽",
	})
}

func newCascade(labels []string, deps Deps, vision bool) *Cascade {
	return New(fields.DefaultTable(), Config{Labels: labels, Separator: "_", EnableVision: vision}, deps, nil)
}

func TestNeedsSecondChance(t *testing.T) {
	cases := []struct {
		joined string
		sep    string
		want   bool
	}{
		{"济南公司__王丽丽", "_", true},
		{"_济南公司_王丽丽", "_", true},
		{"济南公司_王丽丽_", "_", true},
		{"济南公司_2025年03月01日_94.34", "_", false},
		{"", "_", true},
		{"济南公司王丽丽", "", false},
		{"济南公司--王丽丽", "-", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NeedsSecondChance(tc.joined, tc.sep), "%q sep %q", tc.joined, tc.sep)
	}
}

func TestRegexOnDirectTextSkipsAI(t *testing.T) {
	ai := &fakeAI{}
	o := &fakeOCR{}
	c := newCascade([]string{"销方名称", "开票日期", "合计"}, Deps{TextLayer: fakeText{text: invoiceText}, OCR: o, AI: ai}, false)

	out := c.Run(context.Background(), "/tmp/a.pdf")
	assert.Equal(t, "济南公司_2025年03月01日_94.34", out.Joined)
	assert.Equal(t, StateRegexOnDirectText, out.State)
	assert.Equal(t, []State{StateDirectText, StateRegexOnDirectText, StateDone}, out.Trail)
	assert.False(t, out.SecondChance)
	assert.Zero(t, ai.textCalls)
	assert.Zero(t, o.calls)
}

func TestGuardFiresExactlyOnceForDoubleSeparator(t *testing.T) {
	// the model cannot find the date either
	gap := result(map[fields.Kind]string{fields.SellerName: "济南公司", fields.Preparer: "王丽丽"})
	ai := &fakeAI{text: []fields.Result{gap, gap, gap}}
	c := newCascade([]string{"销方名称", "开票日期", "开票人"}, Deps{TextLayer: fakeText{text: partialText}, AI: ai}, false)

	out := c.Run(context.Background(), "/tmp/b.pdf")
	assert.Equal(t, 1, ai.textCalls)
	assert.True(t, out.SecondChance)
	assert.Equal(t, "济南公司__王丽丽", out.Joined)
	assert.Equal(t, partialText, ai.inputs[0])
	assert.Equal(t, StateDone, out.Trail[len(out.Trail)-1])
	assert.Contains(t, out.Trail, StateSecondChanceAi)
}

func TestGuardFiresExactlyOnceForLeadingSeparator(t *testing.T) {
	ai := &fakeAI{text: []fields.Result{full()}}
	c := newCascade([]string{"开票日期", "销方名称", "开票人"}, Deps{TextLayer: fakeText{text: partialText}, AI: ai}, false)

	out := c.Run(context.Background(), "/tmp/c.pdf")
	assert.Equal(t, 1, ai.textCalls)
	assert.True(t, out.SecondChance)
	assert.Equal(t, StateSecondChanceAi, out.State)
	assert.Equal(t, "2025年03月01日_济南公司_王丽丽", out.Joined)
}

func TestSecondChanceKeepsBetterResult(t *testing.T) {
	ai := &fakeAI{text: []fields.Result{result(map[fields.Kind]string{fields.Preparer: "王丽丽"})}}
	c := newCascade([]string{"销方名称", "开票日期", "开票人"}, Deps{TextLayer: fakeText{text: partialText}, AI: ai}, false)

	out := c.Run(context.Background(), "/tmp/d.pdf")
	assert.Equal(t, 1, ai.textCalls)
	assert.Equal(t, StateRegexOnDirectText, out.State)
	assert.Equal(t, "济南公司__王丽丽", out.Joined)
}

func TestImageGoesThroughOCRThenAI(t *testing.T) {
	ai := &fakeAI{text: []fields.Result{full()}}
	o := &fakeOCR{text: "OCR 识别的发票文本"}
	c := newCascade([]string{"销方名称", "开票日期", "合计"}, Deps{TextLayer: fakeText{text: invoiceText}, OCR: o, AI: ai}, false)

	out := c.Run(context.Background(), "/tmp/scan.png")
	assert.Equal(t, []State{StateOcrThenAi, StateDone}, out.Trail)
	assert.Equal(t, StateOcrThenAi, out.State)
	assert.Equal(t, "济南公司_2025年03月01日_94.34", out.Joined)
	assert.Equal(t, []string{"OCR 识别的发票文本"}, ai.inputs)
	assert.Equal(t, 1, o.calls)
}

func TestNoTextLayerFallsBackToOCR(t *testing.T) {
	ai := &fakeAI{text: []fields.Result{full()}}
	o := &fakeOCR{text: "扫描件文本"}
	c := newCascade([]string{"销方名称"}, Deps{TextLayer: fakeText{err: pdf.ErrNoTextLayer}, OCR: o, AI: ai}, false)

	out := c.Run(context.Background(), "/tmp/scan.pdf")
	assert.Equal(t, []State{StateDirectText, StateRegexOnDirectText, StateOcrThenAi, StateDone}, out.Trail)
	assert.Equal(t, "济南公司", out.Joined)
	assert.Equal(t, "扫描件文本", out.Text())
}

func TestVisionWhenOCRFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xd8, 0xff, 0xe0}, 0o644))

	ai := &fakeAI{image: full()}
	o := &fakeOCR{err: errors.New("tesseract: not found")}
	c := newCascade([]string{"销方名称", "开票日期", "合计"}, Deps{OCR: o, AI: ai}, true)

	out := c.Run(context.Background(), path)
	assert.Equal(t, 1, ai.imageCalls)
	assert.Zero(t, ai.textCalls)
	assert.Equal(t, StateVisionAi, out.State)
	assert.Equal(t, "济南公司_2025年03月01日_94.34", out.Joined)
}

func TestVisionRendersFirstPDFPage(t *testing.T) {
	ai := &fakeAI{image: full()}
	img := &fakeImager{}
	c := newCascade([]string{"销方名称"}, Deps{
		TextLayer: fakeText{err: pdf.ErrNoTextLayer},
		OCR:       &fakeOCR{},
		AI:        ai,
		Imager:    img,
	}, true)

	out := c.Run(context.Background(), "/tmp/scan.pdf")
	assert.Equal(t, []int{0}, img.pages)
	assert.Equal(t, "济南公司", out.Joined)
	assert.Equal(t, []State{StateDirectText, StateOcrThenAi, StateVisionAi, StateDone}, out.Trail)
}

func TestVisionDisabledDegradesToNull(t *testing.T) {
	ai := &fakeAI{image: full()}
	c := newCascade([]string{"销方名称", "开票日期"}, Deps{OCR: &fakeOCR{}, AI: ai}, false)

	out := c.Run(context.Background(), "/tmp/blank.png")
	assert.Zero(t, ai.imageCalls)
	assert.Zero(t, ai.textCalls)
	assert.False(t, out.Result.Usable())
	assert.Equal(t, "_", out.Joined)
	assert.Len(t, out.Result.Keys(), fields.DefaultTable().Len())
}

func TestWithoutAIRegexRunsOnOCRText(t *testing.T) {
	o := &fakeOCR{text: invoiceText}
	c := newCascade([]string{"销方名称", "合计"}, Deps{OCR: o}, true)

	out := c.Run(context.Background(), "/tmp/scan.png")
	assert.Equal(t, "济南公司_94.34", out.Joined)
	assert.False(t, out.SecondChance)
}

func TestUnknownLabelsRequestNothingFromRegex(t *testing.T) {
	o := &fakeOCR{text: invoiceText}
	c := newCascade([]string{"不存在的字段"}, Deps{TextLayer: fakeText{text: invoiceText}, OCR: o}, false)

	out := c.Run(context.Background(), "invoice.pdf")

	assert.False(t, out.Result.Usable())
	assert.Equal(t, []State{StateDirectText, StateRegexOnDirectText, StateOcrThenAi, StateDone}, out.Trail)
	assert.Equal(t, 1, o.calls)
	require.Len(t, out.Values, 1)
	assert.Nil(t, out.Values[0].Value)
	assert.Empty(t, out.Joined)
}
