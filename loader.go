package wreckage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // For BMP decoding
	_ "golang.org/x/image/tiff" // For TIFF decoding
	_ "golang.org/x/image/webp" // For WEBP decoding
)

const (
	// DefaultLoadTimeout bounds a single image fetch and decode.
	DefaultLoadTimeout = 10 * time.Second
	// DefaultMaxImageBytes caps the size of a fetched image body.
	DefaultMaxImageBytes = 20 << 20
)

// LoadedImage is a decoded raster with its pixel dimensions.
type LoadedImage struct {
	Image  image.Image
	Width  int
	Height int
	Format string
}

// A Loader fetches remote images. Failures are routine and never returned to
// the caller: Load reports them as an absent image.
type Loader struct {
	Client   *http.Client
	Timeout  time.Duration
	MaxBytes int64
	Logger   *zap.Logger
}

// NewLoader creates a loader with the default timeout and size limit.
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{
		Client:   &http.Client{},
		Timeout:  DefaultLoadTimeout,
		MaxBytes: DefaultMaxImageBytes,
		Logger:   logger,
	}
}

// Load fetches url and decodes it. It returns nil if the image could not be
// obtained for any reason.
func (l *Loader) Load(ctx context.Context, url string) *LoadedImage {
	logger := l.logger().With(zap.String("url", url))

	img, err := l.fetchImage(ctx, url)
	if err != nil {
		logger.Debug("image unavailable", zap.Error(err))
		return nil
	}

	logger.Debug("image loaded",
		zap.String("format", img.Format),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height))
	return img
}

func (l *Loader) fetchImage(ctx context.Context, url string) (*LoadedImage, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	limit := l.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxImageBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image larger than %d bytes", limit)
	}

	return decodeImage(data)
}

var errNoDirectDecoder = errors.New("no direct decoder")

// decodeImage tries the decoder matching the sniffed content type first and
// falls back to the registered format table. Images whose header claims more
// than maxCanvasPixels are rejected before any pixel buffer is allocated.
func decodeImage(data []byte) (li *LoadedImage, err error) {
	if len(data) == 0 {
		return nil, errors.New("empty image body")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New("image has no pixels")
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxCanvasPixels {
		return nil, fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, maxCanvasPixels)
	}

	defer func() {
		if r := recover(); r != nil {
			li, err = nil, fmt.Errorf("decode image: panic: %v", r)
		}
	}()

	img, format, err := decodeDirect(data)
	if err != nil {
		img, format, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("image has no pixels")
	}

	return &LoadedImage{
		Image:  img,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: format,
	}, nil
}

func decodeDirect(data []byte) (image.Image, string, error) {
	r := bytes.NewReader(data)
	switch http.DetectContentType(data) {
	case "image/png":
		img, err := png.Decode(r)
		return img, "png", err
	case "image/jpeg":
		img, err := jpeg.Decode(r)
		return img, "jpeg", err
	case "image/gif":
		img, err := gif.Decode(r)
		return img, "gif", err
	}
	return nil, "", errNoDirectDecoder
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}
