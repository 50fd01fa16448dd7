package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// Gemini holds a client and the two generators built on it.
type Gemini struct {
	client     *genai.Client
	Events     *GeminiGenerator
	Commentary *GeminiGenerator
}

// NewGemini connects to the Gemini API. Event generation is constrained to the card
// JSON schema; commentary is free text.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if modelName == "" {
		modelName = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	events := client.GenerativeModel(modelName)
	events.SetTemperature(0.9)
	events.ResponseMIMEType = "application/json"
	events.ResponseSchema = eventCardSchema()

	commentary := client.GenerativeModel(modelName)
	commentary.SetTemperature(0.7)

	return &Gemini{
		client:     client,
		Events:     &GeminiGenerator{model: events},
		Commentary: &GeminiGenerator{model: commentary},
	}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

// GeminiGenerator is a Generator backed by one configured Gemini model.
type GeminiGenerator struct {
	model *genai.GenerativeModel
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response type from Gemini")
	}
	return sb.String(), nil
}

func eventCardSchema() *genai.Schema {
	text := &genai.Schema{Type: genai.TypeString}
	effects := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"reputation":   {Type: genai.TypeInteger},
			"profit":       {Type: genai.TypeInteger},
			"customerFlow": {Type: genai.TypeInteger},
			"staffMorale":  {Type: genai.TypeInteger},
		},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":        text,
			"description":  text,
			"category":     {Type: genai.TypeString, Enum: []string{"daily", "crisis", "opportunity"}},
			"leftChoice":   text,
			"rightChoice":  text,
			"leftEffects":  effects,
			"rightEffects": effects,
			"rarity":       {Type: genai.TypeString, Enum: []string{"common", "uncommon", "rare", "legendary"}},
		},
		Required: []string{"title", "description", "category", "leftChoice", "rightChoice", "leftEffects", "rightEffects"},
	}
}
