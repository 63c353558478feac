package palette

import (
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/releasecal/pkg/errors"
)

// Scheme selects how release counts are turned into heat fills.
type Scheme string

const (
	SchemeHue     Scheme = "hue"
	SchemeBlue    Scheme = "blue"
	SchemeGreen   Scheme = "green"
	SchemePurple  Scheme = "purple"
	SchemeRainbow Scheme = "rainbow"
)

// DefaultHue is the heatmap hue when none is configured.
const DefaultHue = 210.0

type gradient struct{ min, max string }

var gradients = map[Scheme]gradient{
	SchemeBlue:    {"#E3F2FD", "#0E71EB"},
	SchemeGreen:   {"#E8F5E9", "#2E7D32"},
	SchemePurple:  {"#F3E5F5", "#7B1FA2"},
	SchemeRainbow: {"#FFEBEE", "#1A237E"},
}

// Schemes lists the accepted scheme names.
var Schemes = []Scheme{SchemeHue, SchemeBlue, SchemeGreen, SchemePurple, SchemeRainbow}

// ParseScheme resolves a scheme name. An empty name selects SchemeHue.
func ParseScheme(s string) (Scheme, error) {
	name := Scheme(strings.ToLower(strings.TrimSpace(s)))
	if name == "" {
		return SchemeHue, nil
	}
	for _, sc := range Schemes {
		if sc == name {
			return sc, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown heatmap scheme %q", s)
}

// HeatOptions configures HeatFill.
type HeatOptions struct {
	Hue    float64 `json:"hue"`
	Scheme Scheme  `json:"scheme"`
}

// Intensity returns min(1, count/max), or 0 when max is not positive.
func Intensity(count, max int) float64 {
	if max <= 0 || count <= 0 {
		return 0
	}
	return math.Min(1, float64(count)/float64(max))
}

// HeatFill returns the background of a day cell with count releases when the
// busiest day of the period has max. Days without releases get no fill and
// an empty string is returned.
//
// With SchemeHue the fill is hsl(hue, 70%, 100-50*i%). The gradient schemes
// blend their light and dark ends by sqrt(i); SchemeRainbow runs from blue to
// red with hue 240-240*sqrt(i).
func HeatFill(count, max int, opts HeatOptions) string {
	if count <= 0 {
		return ""
	}
	i := Intensity(count, max)

	switch opts.Scheme {
	case SchemeHue, "":
		return colorful.Hsl(opts.Hue, 0.70, (100-i*50)/100).Clamped().Hex()
	case SchemeRainbow:
		v := math.Sqrt(i)
		return colorful.Hsl(240-v*240, 1.0, (50+v*25)/100).Clamped().Hex()
	}

	g, ok := gradients[opts.Scheme]
	if !ok {
		g = gradients[SchemeBlue]
	}
	lo, _ := colorful.Hex(g.min)
	hi, _ := colorful.Hex(g.max)
	return lo.BlendRgb(hi, math.Sqrt(i)).Clamped().Hex()
}

// ColorName names the color family of a hue in degrees.
func ColorName(hue float64) string {
	h := int(hue)
	switch {
	case h < 30:
		return "Red"
	case h < 60:
		return "Orange"
	case h < 90:
		return "Yellow"
	case h < 150:
		return "Green"
	case h < 210:
		return "Cyan"
	case h < 270:
		return "Blue"
	case h < 330:
		return "Purple"
	}
	return "Red"
}

// Contrast returns black or white, whichever reads better on bg.
func Contrast(bg string) string {
	c, err := colorful.Hex(bg)
	if err != nil {
		return "#000000"
	}
	l, _, _ := c.Lab()
	if l > 0.6 {
		return "#000000"
	}
	return "#ffffff"
}
