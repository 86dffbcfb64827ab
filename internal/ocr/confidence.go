package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate     = regexp.MustCompile(`20\d{2}\s*[年\-/]\s*\d{1,2}\s*[月\-/]`)
	reCurr     = regexp.MustCompile(`[¥￥]|元`)
	reAmount   = regexp.MustCompile(`\d+\.\d{2}`)
	reInvoiceW = regexp.MustCompile(`发票|税号|纳税人识别号|价税合计`)
)

// heuristicConfidence scores recognized text by the invoice artifacts it contains.
func heuristicConfidence(txt string) float32 {
	score := float32(0.2)
	if reInvoiceW.MatchString(txt) {
		score += 0.25
	}
	if reDate.MatchString(txt) {
		score += 0.15
	}
	if reCurr.MatchString(txt) {
		score += 0.15
	}
	if reAmount.MatchString(txt) {
		score += 0.15
	}
	if len([]rune(strings.TrimSpace(txt))) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
