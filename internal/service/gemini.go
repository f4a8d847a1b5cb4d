package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModels lists Gemini models in the order they are tried.
var DefaultModels = []string{
	"gemini-2.5-flash",
	"gemini-flash-latest",
	"gemini-2.0-flash",
	"gemini-2.0-flash-001",
	"gemini-2.0-flash-exp",
}

const defaultHint = "Mild stylistic rewrite with humorous tone."

// promptFiles maps persona names to prompt file names.
var promptFiles = map[string]string{
	"Corporate Robot":              "corporate_robot.txt",
	"Passive-Aggressive Nightmare": "passive_aggressive_nightmare.txt",
	"Shakespearean Drama King":     "shakespearean_drama_king.txt",
	"Teen Angst Poet":              "teen_angst_poet.txt",
	"Belly":                        "belly.txt",
	"Jeremiah":                     "jeremiah.txt",
	"Conrad":                       "conrad.txt",
}

var memeBackgrounds = []string{
	"https://picsum.photos/seed/wrecker-bg1/640/420",
	"https://picsum.photos/seed/wrecker-bg2/640/420",
	"https://placekitten.com/640/420",
	"https://picsum.photos/seed/wrecker-bg3/600/400",
}

// LoadPersonaPrompts reads style hints for each known persona from dir.
// Missing files are skipped.
func LoadPersonaPrompts(dir string) map[string]string {
	prompts := map[string]string{}
	if dir == "" {
		return prompts
	}
	for persona, name := range promptFiles {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		prompts[persona] = strings.TrimSpace(string(data))
	}
	return prompts
}

// generator is the part of genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements the collaborator contracts directly against the Gemini API.
type Gemini struct {
	Models  []string
	Prompts map[string]string
	Logger  *zap.Logger

	gen generator
}

// NewGemini creates a Gemini collaborator.
func NewGemini(ctx context.Context, apiKey string, models []string, prompts map[string]string, logger *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if len(models) == 0 {
		models = DefaultModels
	}
	return &Gemini{
		Models:  models,
		Prompts: prompts,
		Logger:  logger,
		gen:     client.Models,
	}, nil
}

// Rewrite implements the rewrite contract.
func (g *Gemini) Rewrite(ctx context.Context, persona, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: missing text", ErrService)
	}

	hint, ok := g.Prompts[persona]
	if !ok {
		hint = defaultHint
	}
	if persona == "" {
		persona = "Unspecified"
	}

	prompt := "You are 'The Summer I turned Petty'. Rewrite the user's text in the requested persona. " +
		"Keep core meaning but change tone. Preserve punctuation and formatting. " +
		"Do NOT add prefatory text or commentary. Return only the rewritten text.\n\n" +
		"Persona: " + persona + "\n" +
		"Style hints: " + hint + "\n\n" +
		"Text to rewrite:\n" + text
	return g.generate(ctx, prompt)
}

// Advice implements the advice contract.
func (g *Gemini) Advice(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		text = "[no message provided]"
	}
	prompt := "You are 'Should I Send It?' from a Stupid Hackathon. " +
		"Your job is to provide hilariously bad, chaos-inducing encouragement for sending risky texts. " +
		"Return ONE short punchy line (12-24 words). Be confident, reckless, and funny. " +
		"Avoid disclaimers, hedging, or analysis. Do not add emojis. Output ONLY the line.\n\n" +
		"Context: This targets a 'Most Breakup Worthy' vibe. Regardless of input, you almost always advise sending.\n\n" +
		"User message (optional):\n" + text + "\n\n" +
		"Now produce the one-line chaotic encouragement."
	return g.generate(ctx, prompt)
}

// Meme implements the meme contract. Caption generation failures fall back to
// stock captions, so it only fails if ctx is done.
func (g *Gemini) Meme(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	top, bottom := "SEND IT", "what's the worst?"

	subject := strings.TrimSpace(text)
	if subject == "" {
		subject = "[no text provided]"
	}
	prompt := "Generate meme captions. Return two ultra-short lines ONLY in this strict format: " +
		"TOP: <max 6 words>\nBOTTOM: <max 7 words>. " +
		"Be chaotic but humorous; avoid profanity and slurs.\n\n" +
		"Text: " + subject + "\n" +
		"Keep it breakup/messy-text themed."
	raw, err := g.generate(ctx, prompt)
	if err != nil {
		g.logger().Debug("caption generation failed", zap.Error(err))
	} else {
		top, bottom = parseCaptions(raw, top, bottom)
	}

	background := memeBackgrounds[rand.Intn(len(memeBackgrounds))]
	return MemeURL(top, bottom, background), nil
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for _, model := range g.Models {
		resp, err := g.gen.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err != nil {
			g.logger().Debug("model failed", zap.String("model", model), zap.Error(err))
			lastErr = err
			continue
		}
		if out := strings.TrimSpace(resp.Text()); out != "" {
			return out, nil
		}
		lastErr = fmt.Errorf("empty response from model: %s", model)
	}
	if lastErr == nil {
		lastErr = errors.New("no models attempted")
	}
	return "", fmt.Errorf("%w: %v", ErrService, lastErr)
}

func (g *Gemini) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

func parseCaptions(raw, top, bottom string) (string, string) {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		_, value, _ := strings.Cut(line, ":")
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch {
		case strings.HasPrefix(upper, "TOP:"):
			top = value
		case strings.HasPrefix(upper, "BOTTOM:"):
			bottom = value
		}
	}
	return top, bottom
}

var segmentEscaper = strings.NewReplacer(
	"-", "--",
	"_", "__",
	" ", "_",
	"?", "~q",
	"%", "~p",
	"#", "~h",
	"/", "~s",
)

// MemeURL builds a memegen.link image URL with a custom background.
func MemeURL(top, bottom, background string) string {
	topSeg := segmentEscaper.Replace(top)
	if topSeg == "" {
		topSeg = "_"
	}
	bottomSeg := segmentEscaper.Replace(bottom)
	if bottomSeg == "" {
		bottomSeg = "_"
	}
	return "https://api.memegen.link/images/custom/" + topSeg + "/" + bottomSeg +
		".png?background=" + url.QueryEscape(background)
}
