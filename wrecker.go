package wreckage

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// ErrAborted is returned when the user declines to continue.
var ErrAborted = errors.New("wreckage: aborted by user")

// A Rewriter rewrites text in a persona's voice, usually via a remote service.
type Rewriter interface {
	Rewrite(ctx context.Context, persona, text string) (string, error)
}

// A MemeSource suggests an image URL for text.
type MemeSource interface {
	Meme(ctx context.Context, text string) (string, error)
}

// An AdviceSource produces a line of advice about text.
type AdviceSource interface {
	Advice(ctx context.Context, text string) (string, error)
}

// FallbackAdvice is shown when no AdviceSource answers.
var FallbackAdvice = []string{
	"100% send it. What's the worst that could happen?",
	"They need to hear this. DO IT.",
	"Hit send now. Future you can apologize later.",
	"Absolutely send it. Clarity via chaos!",
	"Yes. Send. Consequences are just tomorrow's mini-boss.",
}

// Request is one user action.
type Request struct {
	Persona Persona
	Text    string
	// Confirm is asked before any work starts. A nil Confirm always proceeds.
	Confirm func() bool
}

// Result is the outcome of one Wreck call. Output is always set, even when
// composition failed. ImageURL is the image in Artifact, or the first choice
// if no candidate loaded.
type Result struct {
	Token      uint64
	Output     string
	Remote     bool
	ImageURL   string
	Artifact   *Artifact
	ComposeErr error
}

// Wrecker runs the rewrite, image and compose steps for each user action.
type Wrecker struct {
	Remote   Rewriter
	Memes    MemeSource
	Advisor  AdviceSource
	Composer *Composer
	Logger   *zap.Logger

	seq atomic.Uint64
}

// Wreck runs one user action. Every call gets a new token; callers drop
// results for which IsLatest reports false.
func (w *Wrecker) Wreck(ctx context.Context, req Request) (*Result, error) {
	if req.Confirm != nil && !req.Confirm() {
		return nil, ErrAborted
	}

	res := &Result{Token: w.seq.Add(1)}
	logger := w.logger().With(zap.Uint64("token", res.Token), zap.String("persona", string(req.Persona)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.Output, res.Remote = w.rewrite(gctx, logger, req)
		return nil
	})
	g.Go(func() error {
		res.ImageURL = w.meme(gctx, logger, req.Text)
		return nil
	})
	_ = g.Wait()

	if w.Composer != nil {
		img := w.loadImage(ctx, logger, res)
		res.Artifact, res.ComposeErr = w.Composer.Render(img, res.Output)
		if res.ComposeErr != nil {
			logger.Warn("compose failed", zap.Error(res.ComposeErr))
		}
	}
	return res, nil
}

// loadImage loads res.ImageURL, then one other curated meme, then
// FallbackMeme, stopping at the first that loads.
func (w *Wrecker) loadImage(ctx context.Context, logger *zap.Logger, res *Result) *LoadedImage {
	first := res.ImageURL
	if first == "" || w.Composer.Loader == nil {
		return nil
	}
	tried := []string{first}
	if img := w.Composer.Load(ctx, first); img != nil {
		return img
	}
	for _, next := range []string{Curated{}.Pick(first), FallbackMeme} {
		if slices.Contains(tried, next) {
			continue
		}
		logger.Debug("meme did not load, trying another",
			zap.String("failed", tried[len(tried)-1]),
			zap.String("next", next))
		tried = append(tried, next)
		if img := w.Composer.Load(ctx, next); img != nil {
			res.ImageURL = next
			return img
		}
	}
	return nil
}

// IsLatest reports whether token belongs to the most recent Wreck call.
func (w *Wrecker) IsLatest(token uint64) bool {
	return w.seq.Load() == token
}

// Advise returns advice about text, never failing. Without an advisor it
// returns the first fallback line, the second for an empty reply and the
// third when the advisor fails.
func (w *Wrecker) Advise(ctx context.Context, text string) string {
	if w.Advisor == nil {
		return FallbackAdvice[0]
	}
	advice, err := w.Advisor.Advice(ctx, text)
	if err != nil {
		w.logger().Debug("advice unavailable", zap.Error(err))
		return FallbackAdvice[2]
	}
	if strings.TrimSpace(advice) == "" {
		return FallbackAdvice[1]
	}
	return advice
}

func (w *Wrecker) rewrite(ctx context.Context, logger *zap.Logger, req Request) (string, bool) {
	if w.Remote != nil {
		out, err := w.Remote.Rewrite(ctx, string(req.Persona), req.Text)
		if err == nil && out != "" {
			return out, true
		}
		logger.Debug("remote rewrite unavailable, using local rules", zap.Error(err))
	}
	return Rewrite(req.Persona, req.Text), false
}

func (w *Wrecker) meme(ctx context.Context, logger *zap.Logger, text string) string {
	if w.Memes != nil {
		url, err := w.Memes.Meme(ctx, text)
		if err == nil && url != "" {
			return url
		}
		logger.Debug("meme source unavailable, using curated list", zap.Error(err))
	}
	return Curated{}.Pick("")
}

func (w *Wrecker) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}
