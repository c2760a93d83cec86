// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package openai provides a very minimal client for OpenAI-compatible
// chat-completion endpoints, such as the ones served by LM Studio, Ollama or
// llama.cpp.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dgfeed/dgfeed/internal/request"
)

// Client holds configuration for talking to an OpenAI-compatible endpoint.
type Client struct {
	// URL is the full URL of the chat-completions endpoint, for example
	// "http://localhost:1234/v1/chat/completions".
	URL string
	// Model is the model name passed with every request.
	Model string
	// APIKey is an optional bearer token. Local endpoints usually don't need
	// one.
	APIKey string
	// HTTPClient is an optional HTTP client to use for requests. Defaults to
	// request.DefaultClient.
	HTTPClient *http.Client
	// Scrubber is an optional strings.Replacer that scrubs unwanted data
	// from error messages.
	Scrubber *strings.Replacer
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ChatCompletionParams defines the request body of the chat-completions API.
type ChatCompletionParams struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
}

// ChatCompletionResponse defines the structure of the chat-completions
// response.
type ChatCompletionResponse struct {
	Choices []Choice `json:"choices"`
}

// Choice is a single generated completion.
type Choice struct {
	Message Message `json:"message"`
}

var (
	errNoURL    = errors.New("openai: endpoint URL is empty")
	errNoChoice = errors.New("openai: response contains no choices")
)

// ChatCompletion sends messages to the endpoint and returns the content of
// the first choice.
func (c *Client) ChatCompletion(ctx context.Context, messages ...Message) (string, error) {
	if c.URL == "" {
		return "", errNoURL
	}

	headers := make(map[string]string)
	if c.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.APIKey
	}

	resp, err := request.Make[ChatCompletionResponse](ctx, request.Params{
		Method: http.MethodPost,
		URL:    c.URL,
		Body: ChatCompletionParams{
			Model:       c.Model,
			Messages:    messages,
			Temperature: 0.2,
		},
		Headers:    headers,
		HTTPClient: c.HTTPClient,
		Scrubber:   c.Scrubber,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errNoChoice
	}
	return resp.Choices[0].Message.Content, nil
}
