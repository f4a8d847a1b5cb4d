package wreckage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
)

// Fatal composition errors. Image load failures are never reported.
var (
	ErrSurface = errors.New("wreckage: drawing surface unavailable")
	ErrEncode  = errors.New("wreckage: png encode failed")
)

const maxCanvasPixels = 64 << 20

// LayoutConfig controls the geometry of a composed artifact. All sizes are in
// pixels except FontSize, which is in points rendered at 72 DPI.
type LayoutConfig struct {
	Width      int
	Margin     int
	Spacing    int
	LineHeight int
	FontSize   float64
	// MinAspect sets the minimum height as a fraction of Width.
	MinAspect  float64
	Background color.Color
	Foreground color.Color
}

// DefaultLayout returns the layout used when none is configured.
func DefaultLayout() LayoutConfig {
	return LayoutConfig{
		Width:      800,
		Margin:     40,
		Spacing:    24,
		LineHeight: 40,
		FontSize:   28,
		MinAspect:  0.5,
		Background: color.White,
		Foreground: color.RGBA{0x11, 0x11, 0x11, 0xff},
	}
}

// MinHeight is the smallest height an artifact may have.
func (c LayoutConfig) MinHeight() int {
	return int(math.Round(float64(c.Width) * c.MinAspect))
}

// TextWidth is the width available to the image and the text.
func (c LayoutConfig) TextWidth() int {
	return c.Width - 2*c.Margin
}

// An Artifact is an encoded PNG ready for delivery.
type Artifact struct {
	PNG    []byte
	Width  int
	Height int
}

// Release drops the encoded bytes. The artifact must not be used afterwards.
func (a *Artifact) Release() {
	if a != nil {
		a.PNG = nil
	}
}

// An ImageLoader fetches an image, returning nil when it is unavailable.
type ImageLoader interface {
	Load(ctx context.Context, url string) *LoadedImage
}

// Composer lays out an optional image above wrapped text.
type Composer struct {
	Loader ImageLoader
	Font   *truetype.Font
	Layout LayoutConfig
	Logger *zap.Logger
}

// NewComposer creates a composer. A nil font selects the embedded default.
func NewComposer(loader ImageLoader, layout LayoutConfig, f *truetype.Font, logger *zap.Logger) (*Composer, error) {
	if f == nil {
		var err error
		f, err = DefaultFont()
		if err != nil {
			return nil, fmt.Errorf("load default font: %w", err)
		}
	}
	return &Composer{
		Loader: loader,
		Font:   f,
		Layout: layout,
		Logger: logger,
	}, nil
}

// Compose renders imageURL (which may be empty) above text and encodes the
// result as PNG.
func (c *Composer) Compose(ctx context.Context, imageURL, text string) (*Artifact, error) {
	if err := c.Layout.check(); err != nil {
		return nil, err
	}
	return c.Render(c.Load(ctx, imageURL), text)
}

// Load fetches imageURL through the composer's loader, returning nil if the
// image is unavailable.
func (c *Composer) Load(ctx context.Context, imageURL string) *LoadedImage {
	if imageURL == "" || c.Loader == nil {
		return nil
	}
	return c.Loader.Load(ctx, imageURL)
}

// Render lays out src, which may be nil, above text and encodes the result as
// PNG.
func (c *Composer) Render(src *LoadedImage, text string) (*Artifact, error) {
	layout := c.Layout
	if err := layout.check(); err != nil {
		return nil, err
	}
	inner := layout.TextWidth()

	imageHeight := 0
	if src != nil {
		scale := float64(inner) / float64(src.Width)
		imageHeight = int(math.Max(1, math.Round(float64(src.Height)*scale)))
	}

	metric := NewFaceMetric(c.Font, layout.FontSize)
	lines := Wrap(text, float64(inner), metric)

	height := layout.Margin + imageHeight + len(lines)*layout.LineHeight + layout.Margin
	if src != nil && len(lines) > 0 {
		height += layout.Spacing
	}
	if floor := layout.MinHeight(); height < floor {
		height = floor
	}

	canvas, err := newSurface(layout.Width, height)
	if err != nil {
		return nil, err
	}

	gc := draw2dimg.NewGraphicContext(canvas)
	gc.SetFillColor(layout.background())
	draw2dkit.Rectangle(gc, 0, 0, float64(layout.Width), float64(height))
	gc.Fill()

	y := layout.Margin
	if src != nil {
		x := (layout.Width - inner) / 2
		dst := image.Rect(x, y, x+inner, y+imageHeight)
		draw.CatmullRom.Scale(canvas, dst, src.Image, src.Image.Bounds(), draw.Over, nil)
		y += imageHeight
		if len(lines) > 0 {
			y += layout.Spacing
		}
	}

	if err := c.drawLines(canvas, metric.Face, lines, layout.Margin, y); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: no output", ErrEncode)
	}

	c.logger().Debug("composed artifact",
		zap.Bool("image", src != nil),
		zap.Int("lines", len(lines)),
		zap.Int("width", layout.Width),
		zap.Int("height", height),
		zap.Int("bytes", buf.Len()))

	return &Artifact{
		PNG:    buf.Bytes(),
		Width:  layout.Width,
		Height: height,
	}, nil
}

func (c *Composer) drawLines(canvas *image.RGBA, face font.Face, lines []string, x, y int) error {
	if len(lines) == 0 {
		return nil
	}
	layout := c.Layout

	fc := freetype.NewContext()
	fc.SetDPI(72)
	fc.SetFont(c.Font)
	fc.SetFontSize(layout.FontSize)
	fc.SetHinting(font.HintingNone)
	fc.SetClip(canvas.Bounds())
	fc.SetDst(canvas)
	fc.SetSrc(image.NewUniform(layout.foreground()))

	m := face.Metrics()
	ascent := m.Ascent.Ceil()
	offset := (layout.LineHeight-(m.Ascent+m.Descent).Ceil())/2 + ascent

	for _, line := range lines {
		if _, err := fc.DrawString(line, freetype.Pt(x, y+offset)); err != nil {
			return fmt.Errorf("draw text: %w", err)
		}
		y += layout.LineHeight
	}
	return nil
}

func (c LayoutConfig) check() error {
	if c.Width <= 0 || c.TextWidth() <= 0 || c.LineHeight <= 0 {
		return fmt.Errorf("%w: layout %dx(margin %d, line %d) leaves no drawing area",
			ErrSurface, c.Width, c.Margin, c.LineHeight)
	}
	return nil
}

func newSurface(width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 || width*height > maxCanvasPixels {
		return nil, fmt.Errorf("%w: %dx%d canvas", ErrSurface, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height)), nil
}

func (c LayoutConfig) background() color.Color {
	if c.Background == nil {
		return color.White
	}
	return c.Background
}

func (c LayoutConfig) foreground() color.Color {
	if c.Foreground == nil {
		return color.Black
	}
	return c.Foreground
}

func (c *Composer) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
