package wreckage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLoader returns img for every URL and records what it was asked for.
type stubLoader struct {
	img  *LoadedImage
	urls []string
}

func (s *stubLoader) Load(ctx context.Context, url string) *LoadedImage {
	s.urls = append(s.urls, url)
	return s.img
}

func testLayout() LayoutConfig {
	l := DefaultLayout()
	l.Width = 400
	l.Margin = 20
	l.Spacing = 10
	l.LineHeight = 30
	l.FontSize = 20
	l.MinAspect = 0.5
	return l
}

func newTestComposer(t *testing.T, loader ImageLoader) *Composer {
	t.Helper()
	c, err := NewComposer(loader, testLayout(), nil, nil)
	require.NoError(t, err)
	return c
}

func decodeArtifact(t *testing.T, a *Artifact) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(a.PNG))
	require.NoError(t, err)
	require.Equal(t, a.Width, img.Bounds().Dx())
	require.Equal(t, a.Height, img.Bounds().Dy())
	return img
}

func isWhite(c color.Color) bool {
	r, g, b, a := c.RGBA()
	return r >= 0xff00 && g >= 0xff00 && b >= 0xff00 && a >= 0xff00
}

func redImage(w, h int) *LoadedImage {
	return &LoadedImage{Image: solidImage(w, h, color.RGBA{0xff, 0, 0, 0xff}), Width: w, Height: h, Format: "png"}
}

func TestComposeEmpty(t *testing.T) {
	loader := &stubLoader{}
	a, err := newTestComposer(t, loader).Compose(context.Background(), "", "")
	require.NoError(t, err)

	assert.Empty(t, loader.urls, "no URL means no fetch")
	assert.Equal(t, 400, a.Width)
	assert.Equal(t, testLayout().MinHeight(), a.Height)

	img := decodeArtifact(t, a)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !isWhite(img.At(x, y)) {
				t.Fatalf("pixel (%d,%d) = %v, want background", x, y, img.At(x, y))
			}
		}
	}
}

func TestComposeAbsentImage(t *testing.T) {
	loader := &stubLoader{}
	c := newTestComposer(t, loader)

	withURL, err := c.Compose(context.Background(), "https://example.invalid/x.png", "hello world")
	require.NoError(t, err)
	withoutURL, err := c.Compose(context.Background(), "", "hello world")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.invalid/x.png"}, loader.urls)
	assert.Equal(t, withoutURL.Height, withURL.Height)
}

func TestComposeImageAddsOneLineAndSpacing(t *testing.T) {
	l := testLayout()
	c := newTestComposer(t, &stubLoader{img: redImage(180, 90)})

	imageOnly, err := c.Compose(context.Background(), "img", "")
	require.NoError(t, err)
	withText, err := c.Compose(context.Background(), "img", "hello world")
	require.NoError(t, err)

	// 180x90 scaled to the 360 pixel text width is 180 pixels tall.
	assert.Equal(t, l.Margin+180+l.Margin, imageOnly.Height)
	assert.Equal(t, imageOnly.Height+l.LineHeight+l.Spacing, withText.Height)

	img := decodeArtifact(t, withText)
	r, g, b, _ := img.At(200, l.Margin+90).RGBA()
	assert.GreaterOrEqual(t, r, uint32(0xff00))
	assert.LessOrEqual(t, g, uint32(0xff))
	assert.LessOrEqual(t, b, uint32(0xff))
	assert.True(t, isWhite(img.At(200, l.Margin/2)), "top margin is background")

	var ink bool
	top := l.Margin + 180 + l.Spacing
	for y := top; y < top+l.LineHeight && !ink; y++ {
		for x := l.Margin; x < l.Width-l.Margin; x++ {
			if !isWhite(img.At(x, y)) {
				ink = true
				break
			}
		}
	}
	assert.True(t, ink, "text line drawn below the image")
}

func TestComposeHeightGrowsWithLines(t *testing.T) {
	l := testLayout()
	c := newTestComposer(t, nil)

	text := "word "
	for i := 0; i < 6; i++ {
		text += text
	}
	lines := Wrap(text, float64(l.TextWidth()), NewFaceMetric(c.Font, l.FontSize))
	require.Greater(t, len(lines)*l.LineHeight+2*l.Margin, l.MinHeight())

	a, err := c.Compose(context.Background(), "", text)
	require.NoError(t, err)
	assert.Equal(t, 2*l.Margin+len(lines)*l.LineHeight, a.Height)
}

func TestComposeFromServer(t *testing.T) {
	srv := serveBytes(t, http.StatusOK, pngBytes(t, 90, 45, color.Black))
	c := newTestComposer(t, NewLoader(nil))

	a, err := c.Compose(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, 20+180+20, a.Height)
}

func TestComposeSurfaceErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*LayoutConfig)
	}{
		{"zero width", func(l *LayoutConfig) { l.Width = 0 }},
		{"margins eat width", func(l *LayoutConfig) { l.Margin = 200 }},
		{"no line height", func(l *LayoutConfig) { l.LineHeight = 0 }},
		{"too large", func(l *LayoutConfig) { l.Width = 1 << 20; l.MinAspect = 100 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestComposer(t, nil)
			tt.modify(&c.Layout)
			a, err := c.Compose(context.Background(), "", "hello")
			assert.Nil(t, a)
			assert.True(t, errors.Is(err, ErrSurface), "got %v", err)
		})
	}
}

func TestArtifactRelease(t *testing.T) {
	a, err := newTestComposer(t, nil).Compose(context.Background(), "", "hi")
	require.NoError(t, err)
	require.NotEmpty(t, a.PNG)

	a.Release()
	assert.Nil(t, a.PNG)

	var nilArtifact *Artifact
	assert.NotPanics(t, nilArtifact.Release)
}
