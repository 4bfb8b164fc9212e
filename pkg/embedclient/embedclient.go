// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package embedclient batches text into vector embeddings over an
// OpenAI-compatible embeddings endpoint.
package embedclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// batchSize and interBatchDelay match the external-interfaces contract:
// embed at most 100 items per call, with a 500ms pause between calls so a
// large project doesn't trip the endpoint's rate limiter.
const (
	batchSize       = 100
	interBatchDelay = 500 * time.Millisecond
)

// RateLimitError wraps a quota or rate-limit failure from the embeddings
// endpoint, distinct from a transport failure — callers typically want to
// back off and retry a RateLimitError but surface a TransportError
// immediately.
type RateLimitError struct{ Err error }

func (e *RateLimitError) Error() string { return fmt.Sprintf("embeddings rate limited: %v", e.Err) }
func (e *RateLimitError) Unwrap() error { return e.Err }

// TransportError wraps a connection-level failure reaching the embeddings
// endpoint (DNS, dial, TLS, timeout).
type TransportError struct{ Err error }

func (e *TransportError) Error() string { return fmt.Sprintf("embeddings transport error: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// Client embeds text against an OpenAI-compatible endpoint, batching
// large inputs and pacing requests to respect rate limits.
type Client struct {
	oai   *openai.Client
	model openai.EmbeddingModel
}

// New builds a Client. endpoint, if non-empty, overrides the default
// OpenAI API base URL (pointing at a self-hosted or compatible service).
func New(apiKey, endpoint, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = endpoint
	}
	return &Client{
		oai:   openai.NewClientWithConfig(cfg),
		model: openai.EmbeddingModel(model),
	}
}

// Embed returns the embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds every text in texts, splitting the request into
// chunks of at most 100 items and pausing 500ms between chunks. The
// returned slice preserves the input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += batchSize {
		if i > 0 {
			select {
			case <-time.After(interBatchDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk := texts[i:end]

		resp, err := c.oai.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: chunk,
			Model: c.model,
		})
		if err != nil {
			return nil, classifyErr(err)
		}

		for _, d := range resp.Data {
			vectors = append(vectors, d.Embedding)
		}
	}

	return vectors, nil
}

// classifyErr distinguishes a rate-limit/quota failure (HTTP 429, or the
// API's billing/quota error codes) from a transport-level failure, so
// callers can apply different retry policies to each.
func classifyErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 || apiErr.Code == "insufficient_quota" || apiErr.Code == "rate_limit_exceeded" {
			return &RateLimitError{Err: err}
		}
		return err
	}

	// net/http.Client.Do wraps dial/DNS/TLS/timeout failures in *url.Error
	// before CreateEmbeddings ever sees them.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &TransportError{Err: err}
	}

	return err
}
