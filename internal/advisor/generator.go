package advisor

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const (
	// ModelName is the Gemini model every question is sent to.
	ModelName = "gemini-2.5-flash-lite-latest"
	// Temperature is the fixed sampling temperature.
	Temperature float32 = 0.7
	// TopP is the fixed nucleus-sampling value.
	TopP float32 = 0.95
)

// ErrMissingCredential is returned by every call of a generator built
// without an API key.
var ErrMissingCredential = errors.New("generative API key is not configured")

// Generator turns an ordered list of user turns into model text.
type Generator interface {
	Generate(ctx context.Context, turns []string) (string, error)
}

// GeminiGenerator sends turns to the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a generator authenticated with apiKey. An empty
// key yields a generator that fails every call instead of an error, so a
// process without credentials still starts.
func NewGeminiGenerator(ctx context.Context, apiKey string) (Generator, error) {
	if apiKey == "" {
		return unavailableGenerator{}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiGenerator: create genai client: %w", err)
	}

	return &GeminiGenerator{client: client, model: ModelName}, nil
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, turns []string) (string, error) {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		contents = append(contents, &genai.Content{
			Role:  "user",
			Parts: []*genai.Part{{Text: t}},
		})
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(Temperature),
		TopP:        genai.Ptr(TopP),
	})
	if err != nil {
		return "", fmt.Errorf("Generate: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Generate: empty response from model")
	}
	return text, nil
}

type unavailableGenerator struct{}

func (unavailableGenerator) Generate(context.Context, []string) (string, error) {
	return "", ErrMissingCredential
}
