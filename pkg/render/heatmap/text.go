package heatmap

import (
	"bytes"
	"encoding/xml"
)

const (
	fontHeightRatio = 0.6
	fontWidthRatio  = 0.85
	fontCharWidth   = 0.55
)

// fontSizeFor picks the largest font in [lo, hi] that fits text of textLen
// characters into a w x h box.
func fontSizeFor(w, h float64, textLen int, lo, hi float64) float64 {
	n := max(1, textLen)
	byHeight := h * fontHeightRatio
	byWidth := (w * fontWidthRatio) / (float64(n) * fontCharWidth)
	return max(lo, min(hi, min(byHeight, byWidth)))
}

// truncate shortens label to fit width at fontSize, ending it with "..".
func truncate(label string, width, fontSize float64) string {
	maxChars := int(width * fontWidthRatio / (fontSize * fontCharWidth))
	if maxChars < 3 {
		maxChars = 3
	}
	r := []rune(label)
	if len(r) <= maxChars {
		return label
	}
	return string(r[:maxChars-2]) + ".."
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
