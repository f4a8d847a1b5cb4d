// Package service talks to the collaborators behind the rewrite, meme and
// advice contracts.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

// ErrService wraps every failure reported by a collaborator.
var ErrService = errors.New("service: request failed")

const maxReplyBytes = 1 << 20

var (
	wreckSchema = jsonschema.MustCompileString("wreck.json", `{
		"type": "object",
		"required": ["output"],
		"properties": {"output": {"type": "string", "minLength": 1}}
	}`)
	memeSchema = jsonschema.MustCompileString("meme.json", `{
		"type": "object",
		"required": ["url"],
		"properties": {"url": {"type": "string", "pattern": "^https?://"}}
	}`)
	adviceSchema = jsonschema.MustCompileString("advice.json", `{
		"type": "object",
		"required": ["advice"],
		"properties": {"advice": {"type": "string", "minLength": 1}}
	}`)
)

// Client calls the HTTP rewrite service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *zap.Logger
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Logger:  logger,
	}
}

// Rewrite asks the service to rewrite text as persona.
func (c *Client) Rewrite(ctx context.Context, persona, text string) (string, error) {
	var reply struct {
		Output string `json:"output"`
	}
	req := map[string]string{"persona": persona, "text": text}
	if err := c.post(ctx, "/api/wreck", req, wreckSchema, &reply); err != nil {
		return "", err
	}
	return reply.Output, nil
}

// Meme asks the service for a meme URL matching text.
func (c *Client) Meme(ctx context.Context, text string) (string, error) {
	var reply struct {
		URL string `json:"url"`
	}
	if err := c.post(ctx, "/api/meme", map[string]string{"text": text}, memeSchema, &reply); err != nil {
		return "", err
	}
	return reply.URL, nil
}

// Advice asks the service for advice about text.
func (c *Client) Advice(ctx context.Context, text string) (string, error) {
	var reply struct {
		Advice string `json:"advice"`
	}
	if err := c.post(ctx, "/api/advice", map[string]string{"text": text}, adviceSchema, &reply); err != nil {
		return "", err
	}
	return reply.Advice, nil
}

func (c *Client) post(ctx context.Context, path string, body any, schema *jsonschema.Schema, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrService, err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrService, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return fmt.Errorf("%w: %s: read reply: %v", ErrService, path, err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %s: %s: malformed reply", ErrService, path, resp.Status)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := resp.Status
		if m, ok := doc.(map[string]any); ok {
			if e, ok := m["error"].(string); ok && e != "" {
				msg = e
			}
		}
		return fmt.Errorf("%w: %s: %s", ErrService, path, msg)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrService, path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrService, path, err)
	}

	c.logger().Debug("service reply", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
