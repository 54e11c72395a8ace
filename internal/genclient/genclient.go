// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package genclient talks to an OAuth-protected chat-completions API.
// Authentication uses the client-credentials flow: the client exchanges
// its id/secret pair for a bearer token at the configured token
// endpoint, then sends chat requests with that token. The token is
// cached and refreshed lazily when a call comes back unauthorized.
package genclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/okazmin/vaultpipe/internal/httputil"
	"github.com/okazmin/vaultpipe/pkg/types"
)

// maxInputChars caps the document text appended to the prompt. Longer
// inputs are truncated rather than rejected.
const maxInputChars = 20000

// Client is a chat-completions API client with cached OAuth credentials.
type Client struct {
	cfg  types.GeneratorConfig
	http *http.Client

	mu    sync.Mutex
	token string
}

// New builds a Client from the generator configuration. The HTTP
// timeout from cfg applies to every request.
func New(cfg types.GeneratorConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// tokenResponse is the token endpoint's response body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// chatRequest is the request body for the chat-completions endpoint.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatMessage is a single message in the conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response body from the chat-completions endpoint.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

// chatChoice is one completion candidate.
type chatChoice struct {
	Message chatMessage `json:"message"`
}

// fetchToken exchanges the client id/secret for a bearer token.
func (c *Client) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{"scope": {c.cfg.Scope}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OAuthURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}

	credentials := c.cfg.ClientID + ":" + c.cfg.ClientSecret
	encoded := base64.StdEncoding.EncodeToString([]byte(credentials))

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.NewString())
	req.Header.Set("Authorization", "Basic "+encoded)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access_token")
	}

	return tr.AccessToken, nil
}

// bearer returns the cached token, fetching one if needed. With force
// set the cached token is discarded first.
func (c *Client) bearer(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if force {
		c.token = ""
	}
	if c.token == "" {
		token, err := c.fetchToken(ctx)
		if err != nil {
			return "", err
		}
		c.token = token
	}
	return c.token, nil
}

// Chat sends the prompt followed by the document text (truncated to
// maxInputChars runes) and returns the model's reply. An unauthorized
// response triggers one token refresh before failing.
func (c *Client) Chat(ctx context.Context, prompt, text string) (string, error) {
	if runes := []rune(text); len(runes) > maxInputChars {
		text = string(runes[:maxInputChars])
	}

	token, err := c.bearer(ctx, false)
	if err != nil {
		return "", err
	}

	reply, status, err := c.complete(ctx, token, prompt+text)
	if err != nil {
		return "", err
	}
	if status == http.StatusUnauthorized {
		token, err = c.bearer(ctx, true)
		if err != nil {
			return "", err
		}
		reply, status, err = c.complete(ctx, token, prompt+text)
		if err != nil {
			return "", err
		}
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("chat endpoint returned %d", status)
	}

	return reply, nil
}

// complete performs one chat-completions call. A non-200 status is not
// an error at this level: the status is returned so Chat can decide
// whether to refresh credentials.
func (c *Client) complete(ctx context.Context, token, content string) (string, int, error) {
	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: content}},
		Temperature: 0,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", 0, fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries)
	if err != nil {
		return "", 0, fmt.Errorf("calling chat endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", resp.StatusCode, nil
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", resp.StatusCode, fmt.Errorf("decoding chat response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", resp.StatusCode, fmt.Errorf("chat endpoint returned no choices")
	}

	return cr.Choices[0].Message.Content, resp.StatusCode, nil
}

// ChatJSON calls Chat and decodes the reply as a JSON object, stripping
// a surrounding code fence when the model adds one.
func (c *Client) ChatJSON(ctx context.Context, prompt, text string) (map[string]any, error) {
	raw, err := c.Chat(ctx, prompt, text)
	if err != nil {
		return nil, err
	}

	cleaned := stripJSONFence(raw)

	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("parsing model reply as JSON: %w", err)
	}
	return out, nil
}

// stripJSONFence removes a ```json or bare ``` fence wrapping the reply.
func stripJSONFence(raw string) string {
	trimmed := strings.TrimSpace(raw)

	if after, ok := strings.CutPrefix(trimmed, "```json"); ok {
		if body, _, found := strings.Cut(after, "```"); found {
			return strings.TrimSpace(body)
		}
		return strings.TrimSpace(after)
	}
	if after, ok := strings.CutPrefix(trimmed, "```"); ok {
		if body, _, found := strings.Cut(after, "```"); found {
			return strings.TrimSpace(body)
		}
		return strings.TrimSpace(after)
	}
	return trimmed
}
