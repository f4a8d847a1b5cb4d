package main

import (
	"context"
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"

	"github.com/iopred/wreckage"
	"github.com/iopred/wreckage/internal/service"
)

// collaborators groups the optional remote implementations.
type collaborators struct {
	rewriter wreckage.Rewriter
	memes    wreckage.MemeSource
	advisor  wreckage.AdviceSource
}

// newCollaborators prefers the HTTP service, then Gemini. With neither
// configured everything stays local.
func newCollaborators(ctx context.Context) collaborators {
	if cfg.Service.URL != "" {
		c := service.NewClient(cfg.Service.URL, cfg.Service.Timeout.Duration, logger.Named("service"))
		return collaborators{rewriter: c, memes: c, advisor: c}
	}
	if cfg.Gemini.APIKey != "" {
		prompts := service.LoadPersonaPrompts(cfg.Gemini.PromptsDir)
		g, err := service.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Models, prompts, logger.Named("gemini"))
		if err != nil {
			logger.Warn("Gemini unavailable, using local rules", zap.Error(err))
			return collaborators{}
		}
		return collaborators{rewriter: g, memes: g, advisor: g}
	}
	return collaborators{}
}

func newComposer() (*wreckage.Composer, error) {
	var f *truetype.Font
	if path := cfg.Layout.FontPath; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font %s: %w", path, err)
		}
		f, err = truetype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", path, err)
		}
	}

	loader := wreckage.NewLoader(logger.Named("loader"))
	loader.Timeout = cfg.Loader.Timeout.Duration
	loader.MaxBytes = cfg.Loader.MaxBytes

	return wreckage.NewComposer(loader, cfg.WreckageLayout(), f, logger.Named("composer"))
}

func newDelivery() *wreckage.Delivery {
	d := &wreckage.Delivery{
		Clipboard:   wreckage.CommandClipboard{},
		DownloadDir: cfg.Delivery.DownloadDir,
		Logger:      logger.Named("delivery"),
	}
	if len(cfg.Delivery.ShareCommand) > 0 {
		d.Sharer = wreckage.CommandSharer{Argv: cfg.Delivery.ShareCommand}
	}
	return d
}
