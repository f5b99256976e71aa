package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiVision sends captured images straight to Gemini instead of the
// upload endpoint. It implements domain.ImageUploader.
type GeminiVision struct {
	client    *genai.Client
	modelName string
}

// NewGeminiVision creates a Gemini API client for image description.
func NewGeminiVision(ctx context.Context, apiKey, modelName string) (*GeminiVision, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY must be set")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiVision{
		client:    client,
		modelName: modelName,
	}, nil
}

// UploadImage asks the model about the prescription in data (a JPEG).
func (g *GeminiVision) UploadImage(ctx context.Context, data []byte, filename string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(VisionPrompt),
			genai.NewPartFromBytes(data, "image/jpeg"),
		}, genai.RoleUser),
	}

	temp := float32(0.3)
	cfg := &genai.GenerateContentConfig{
		Temperature: &temp,
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content (%s): %w", filename, err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}
