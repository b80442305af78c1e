// Package ai turns free-form text into events with the help of a language
// model, reached either over an OpenAI-compatible API or through a locally
// installed CLI tool.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"termcal/config"
	"termcal/internal/log"
)

const defaultBaseURL = "https://api.openai.com/v1"

// maxAttempts bounds how many backends one Call tries
const maxAttempts = 3

// ErrUnavailable is returned by Call when no backend is configured or installed
var ErrUnavailable = errors.New("no AI provider available: configure ai_providers in config.yml or install claude, codex, gemini or ollama")

// lookPath is swapped in tests
var lookPath = exec.LookPath

type backend interface {
	label() string
	complete(ctx context.Context, prompt string) (string, error)
}

// Client sends prompts to the first backend that answers
type Client struct {
	backends []backend
	logger   zerolog.Logger
}

// NewClient builds the backend list from cfg. API providers with a key come
// first, then configured CLI tools found on PATH. With neither, any known
// CLI tool on PATH is used with its default model.
func NewClient(cfg config.Config) *Client {
	c := &Client{logger: log.WithComponent("ai")}

	for _, p := range cfg.AIProviders {
		if p.Type == config.AIProviderTypeAPI && p.Model != "" && p.APIKey != "" {
			c.backends = append(c.backends, newAPIBackend(p))
		}
	}
	for _, p := range cfg.AIProviders {
		if p.Type != config.AIProviderTypeCLI || p.Model == "" {
			continue
		}
		if tool, ok := findTool(p.Name); ok && installed(tool.name) {
			c.backends = append(c.backends, cliBackend{tool: tool, model: p.Model})
		}
	}

	if len(c.backends) == 0 {
		for _, tool := range cliTools {
			if installed(tool.name) {
				c.backends = append(c.backends, cliBackend{tool: tool, model: tool.defaultModel})
			}
		}
	}
	return c
}

func (c *Client) Available() bool {
	return c != nil && len(c.backends) > 0
}

// Provider names the backend tried first, as name/model
func (c *Client) Provider() string {
	if !c.Available() {
		return ""
	}
	return c.backends[0].label()
}

// Call runs prompt against up to maxAttempts backends and returns the first
// successful reply
func (c *Client) Call(ctx context.Context, prompt string) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}

	var failed []string
	for _, b := range c.backends[:min(len(c.backends), maxAttempts)] {
		reply, err := b.complete(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.logger.Warn().Err(err).Str("provider", b.label()).Msg("AI provider failed")
		failed = append(failed, b.label())
	}
	return "", fmt.Errorf("all AI providers failed: %s", strings.Join(failed, ", "))
}

type apiBackend struct {
	name   string
	model  string
	client openai.Client
}

func newAPIBackend(p config.AIProvider) apiBackend {
	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return apiBackend{
		name:  p.Name,
		model: p.Model,
		client: openai.NewClient(
			option.WithAPIKey(p.APIKey),
			option.WithBaseURL(baseURL),
		),
	}
}

func (b apiBackend) label() string {
	if b.name == "" {
		return b.model
	}
	return b.name + "/" + b.model
}

func (b apiBackend) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    b.model,
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// cliTool describes how to drive one model CLI non-interactively
type cliTool struct {
	name         string
	defaultModel string
	args         func(model, prompt string) []string
	parse        func(stdout string) string
}

// cliTools is also the auto-detection order
var cliTools = []cliTool{
	{
		name:         "claude",
		defaultModel: "haiku",
		args: func(model, prompt string) []string {
			return []string{"-p", prompt, "--model", model, "--output-format", "json", "--no-session-persistence"}
		},
		parse: parseClaudeOutput,
	},
	{
		name:         "codex",
		defaultModel: "o4-mini",
		args: func(model, prompt string) []string {
			return []string{"exec", prompt, "--model", model, "--json"}
		},
		parse: parseCodexOutput,
	},
	{
		name:         "gemini",
		defaultModel: "gemini-2.5-flash",
		args: func(model, prompt string) []string {
			return []string{"-p", prompt, "-m", model, "--output-format", "json"}
		},
		parse: parseGeminiOutput,
	},
	{
		name:         "ollama",
		defaultModel: "llama3.2:3b",
		args: func(model, prompt string) []string {
			return []string{"run", model, prompt}
		},
		parse: func(s string) string { return s },
	},
}

func findTool(name string) (cliTool, bool) {
	for _, t := range cliTools {
		if t.name == name {
			return t, true
		}
	}
	return cliTool{}, false
}

func installed(name string) bool {
	_, err := lookPath(name)
	return err == nil
}

type cliBackend struct {
	tool  cliTool
	model string
}

func (b cliBackend) label() string {
	return b.tool.name + "/" + b.model
}

func (b cliBackend) complete(ctx context.Context, prompt string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.tool.name, b.tool.args(b.model, prompt)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %s", b.tool.name, msg)
		}
		return "", fmt.Errorf("%s: %w", b.tool.name, err)
	}
	return strings.TrimSpace(b.tool.parse(stdout.String())), nil
}

// parseClaudeOutput reads the result field of claude's JSON envelope
func parseClaudeOutput(out string) string {
	var envelope struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal([]byte(out), &envelope); err != nil {
		return out
	}
	return envelope.Result
}

// parseGeminiOutput skips any banner text before the JSON object
func parseGeminiOutput(out string) string {
	start := strings.IndexByte(out, '{')
	if start < 0 {
		return out
	}
	var envelope struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal([]byte(out[start:]), &envelope); err != nil {
		return out
	}
	return envelope.Response
}

// parseCodexOutput returns the last agent message in codex's JSONL stream
func parseCodexOutput(out string) string {
	var last string
	for _, line := range strings.Split(out, "\n") {
		var ev struct {
			Type string `json:"type"`
			Item struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"item"`
		}
		if json.Unmarshal([]byte(strings.TrimSpace(line)), &ev) != nil {
			continue
		}
		if ev.Type == "item.completed" && ev.Item.Type == "agent_message" {
			last = ev.Item.Text
		}
	}
	return last
}
