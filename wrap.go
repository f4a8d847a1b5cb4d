package wreckage

import (
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// A FontMetric measures the rendered width of a string in pixels.
type FontMetric interface {
	Measure(s string) float64
}

// Wrap breaks text into lines no wider than maxWidth. Words are never split,
// so a single word wider than maxWidth gets a line of its own.
func Wrap(text string, maxWidth float64, metric FontMetric) []string {
	var lines []string
	var line string
	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if line != "" && metric.Measure(candidate) > maxWidth {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// FaceMetric measures strings with a font face.
type FaceMetric struct {
	Face font.Face
}

// Measure implements FontMetric.
func (m FaceMetric) Measure(s string) float64 {
	return fixedToFloat64(font.MeasureString(m.Face, s))
}

// NewFaceMetric returns a metric for f at size points, rendered at 72 DPI so
// one point is one pixel.
func NewFaceMetric(f *truetype.Font, size float64) FaceMetric {
	return FaceMetric{Face: truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})}
}

// DefaultFont returns the embedded Go Regular font.
func DefaultFont() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
}

func fixedToFloat64(x fixed.Int26_6) float64 {
	return float64(x) / 64
}
