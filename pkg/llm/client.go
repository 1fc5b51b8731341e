// SupportBot - rule-first support chat for FeastLine
// License: MIT
//
// Copyright (c) 2026 SupportBot contributors

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Options are the decoding parameters sent with every completion.
type Options struct {
	MaxTokens     int
	Temperature   float64
	TopP          float64
	TopK          int
	RepeatPenalty float64
	Stop          []string
}

// Client talks to a locally hosted llama.cpp server over its native
// /completion endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for baseURL. timeout bounds each request;
// zero means no client-side timeout (inference runs until the server
// answers).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type completionRequest struct {
	Prompt        string   `json:"prompt"`
	NPredict      int      `json:"n_predict"`
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"top_p"`
	TopK          int      `json:"top_k"`
	RepeatPenalty float64  `json:"repeat_penalty"`
	Stop          []string `json:"stop,omitempty"`
	Stream        bool     `json:"stream"`
}

type completionResponse struct {
	Content string `json:"content"`
}

// Complete runs one completion and returns the raw generated text.
func (c *Client) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("model base URL not configured")
	}

	body := completionRequest{
		Prompt:        prompt,
		NPredict:      opts.MaxTokens,
		Temperature:   opts.Temperature,
		TopP:          opts.TopP,
		TopK:          opts.TopK,
		RepeatPenalty: opts.RepeatPenalty,
		Stop:          opts.Stop,
		Stream:        false,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/completion", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model request failed:\n  Status: %d\n  Body:   %s", resp.StatusCode, string(respBody))
	}

	var completion completionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return completion.Content, nil
}

// Health probes the server's /health endpoint. A non-200 answer or a
// transport error means the model backend is not usable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model backend unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model backend unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
