// Copyright (C) 2019-2024 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

// Package llm requests structured completions from an OpenAI compatible
// chat service.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/restclient"
)

// ErrPromptTooLong is returned when a prompt exceeds the token budget.
var ErrPromptTooLong = errors.New("prompt exceeds token budget")

// ErrEmptyCompletion is returned when the service answers without content.
var ErrEmptyCompletion = errors.New("completion has no content")

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Params configures a Client.
type Params struct {
	Endpoint        string
	APIKey          string
	Model           string
	MaxPromptTokens int
	Counter         TokenCounter
}

// Client requests completions.
type Client struct {
	rest      restclient.RestClient
	model     string
	maxTokens int
	counter   TokenCounter
	tracer    trace.Tracer
}

// MakeClient creates a client. A nil Counter selects NewTokenCounter(Model).
func MakeClient(params Params) (*Client, error) {
	u, err := restclient.ParseEndpoint(params.Endpoint)
	if err != nil {
		return nil, err
	}
	if params.Model == "" {
		return nil, fmt.Errorf("llm: no model configured")
	}
	headers := map[string]string{}
	if params.APIKey != "" {
		headers["Authorization"] = "Bearer " + params.APIKey
	}
	counter := params.Counter
	if counter == nil {
		counter = NewTokenCounter(params.Model)
	}
	return &Client{
		rest:      restclient.MakeRestClient(u, headers),
		model:     params.Model,
		maxTokens: params.MaxPromptTokens,
		counter:   counter,
		tracer:    otel.Tracer("llm"),
	}, nil
}

// CompleteJSON sends system and user messages and returns the content of
// the first choice, requested as a JSON object.
func (c *Client) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "llm.request",
		trace.WithAttributes(
			attribute.String("llm.model", c.model),
		),
	)
	defer span.End()

	content, err := c.complete(ctx, system, user)
	span.SetAttributes(attribute.Int64("llm.duration_ms", time.Since(start).Milliseconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return content, nil
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	messages := []Message{{Role: "system", Content: system}, {Role: "user", Content: user}}
	if c.maxTokens > 0 {
		n := 3
		for _, m := range messages {
			n += 3 + c.counter.Count(m.Content)
		}
		if n > c.maxTokens {
			return "", fmt.Errorf("%w: %d > %d", ErrPromptTooLong, n, c.maxTokens)
		}
	}

	var resp chatResponse
	err := c.rest.Post(ctx, &resp, "/chat/completions", nil, chatRequest{
		Model:          c.model,
		Messages:       messages,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
