// Package textgen talks to the hosted language model used for advisory text:
// chat, summaries, standings insight and license OCR. Every call is bounded
// by a short retry policy and degrades to a canned message.
package textgen

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

type Turn struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

type Request struct {
	Prompt    string
	System    string
	History   []Turn
	Image     []byte
	ImageMIME string
	JSON      bool
}

// Generator returns the model's text for one request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type GenAI struct {
	client *genai.Client
	model  string
}

func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-3-flash-preview"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAI{client: client, model: model}, nil
}

func (g *GenAI) Generate(ctx context.Context, req Request) (string, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, h := range req.History {
		role := genai.RoleUser
		if h.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(h.Text, role))
	}
	if len(req.Image) > 0 {
		contents = append(contents, genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(req.Image, req.ImageMIME),
			genai.NewPartFromText(req.Prompt),
		}, genai.RoleUser))
	} else {
		contents = append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))
	}

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
