package llm

import (
	"strings"

	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
)

const systemInstruction = "你是一个专业的发票信息提取算法。请仅从用户提供的发票文本中提取相关信息，" +
	"并填充到预定义的JSON结构中。如果某个字段的值在文本中找不到，请不要编造，让该字段的值为null。"

// pairingRule keeps buyer/seller tax ids aligned with the name order.
const pairingRule = "如果遇到下面这样的内容：" +
	"'名称：武汉东湖学院 名称：中国移动通信集团湖北有限公司武汉分公司 " +
	"统一社会信用代码/纳税人识别号：52420000123406283N " +
	"统一社会信用代码/纳税人识别号：91420100717918134N'，" +
	"切记购方税号和销方税号按照单位名称出现的顺序对应：第N个名称对应第N个税号，不得交换。" +
	"即：武汉东湖学院-52420000123406283N（购方），中国移动通信集团湖北有限公司武汉分公司-91420100717918134N（销方）。"

const visionInstruction = "请详细描述这张发票图片的内容，并提取所有关键信息。"

// BuildSystemPrompt composes the extraction instruction, the pairing rule and
// the list of JSON keys for a table.
func BuildSystemPrompt(t fields.Table) string {
	parts := []string{
		systemInstruction,
		pairingRule,
		"请只输出一个JSON对象，必须包含以下全部键：",
		describeKeys(t, func(s fields.Spec) string { return string(s.Kind) }),
		"金额只保留数字和小数点，不要带货币符号。",
	}
	return strings.Join(parts, "\n")
}

// BuildVisionPrompt asks for a description followed by a JSON object keyed by labels,
// since vision endpoints cannot be schema-constrained.
func BuildVisionPrompt(t fields.Table) string {
	parts := []string{
		visionInstruction,
		pairingRule,
		"描述之后，请在最后输出一个JSON对象（用```json代码块包裹），键使用以下中文字段名，找不到的字段填null：",
		describeKeys(t, func(s fields.Spec) string { return s.Label }),
	}
	return strings.Join(parts, "\n")
}

func describeKeys(t fields.Table, key func(fields.Spec) string) string {
	var b strings.Builder
	for _, s := range t.Specs() {
		b.WriteString("- ")
		b.WriteString(key(s))
		if s.Description != "" {
			b.WriteString("：")
			b.WriteString(s.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildUserPrompt wraps the raw invoice text; long scans are cut at maxRunes.
func BuildUserPrompt(text string, maxRunes int) string {
	r := []rune(strings.TrimSpace(text))
	if maxRunes > 0 && len(r) > maxRunes {
		return string(r[:maxRunes]) + "\n…(truncated)"
	}
	return string(r)
}
