package oracle

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/genai"

	"fanreg/internal/config"
)

// Gemini implements Client on Google's Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed oracle client.
func NewGemini(ctx context.Context, cfg config.OracleConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("oracle api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

var _ Client = (*Gemini)(nil)

// Send performs a single GenerateContent call. It does not retry: a failed
// call is reported to the caller, which degrades the affected check instead
// of aborting the registration.
func (g *Gemini) Send(ctx context.Context, p Prompt, maxTokens int32, temperature float32) (string, error) {
	parts := make([]*genai.Part, 0, len(p.Parts))
	for _, part := range p.Parts {
		if part.ImageBase64 != "" {
			raw, err := base64.StdEncoding.DecodeString(part.ImageBase64)
			if err != nil {
				return "", fmt.Errorf("decode inline image: %w", err)
			}
			parts = append(parts, genai.NewPartFromBytes(raw, part.ImageMIME))
			continue
		}
		parts = append(parts, genai.NewPartFromText(part.Text))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(p.System, genai.RoleUser),
			Temperature:       genai.Ptr(temperature),
			MaxOutputTokens:   maxTokens,
		})
	if err != nil {
		return "", fmt.Errorf("oracle call: %w", err)
	}
	return resp.Text(), nil
}
