package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/studyhallhq/tutor-agent/internal/config"
	"github.com/studyhallhq/tutor-agent/internal/domain"
)

// GeminiClient implements domain.TextGenerator on Vertex AI (Gemini).
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	if cfg.GCPProjectID == "" || cfg.GCPLocation == "" {
		return nil, fmt.Errorf("TUTOR_GCP_PROJECT and TUTOR_GCP_LOCATION must be set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.GCPProjectID,
		Location: cfg.GCPLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: cfg.ModelName,
	}, nil
}

func (g *GeminiClient) generateConfig(withPersona bool) *genai.GenerateContentConfig {
	temp := float32(0.7)
	topP := float32(0.9)
	outputTokens := int32(8192)

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: outputTokens,
	}
	if withPersona {
		cfg.SystemInstruction = genai.NewContentFromText(tutorSystemPrompt, genai.RoleUser)
	}
	return cfg
}

// Generate is the single-shot call shape, used for quiz prompts. No tutor
// persona is attached: the prompt carries all instructions itself.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, g.generateConfig(false))
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}

// StartChat opens a stateful conversation seeded with the stored history,
// so a re-selected session continues where it left off.
func (g *GeminiClient) StartChat(ctx context.Context, history []domain.Turn) (domain.ChatSession, error) {
	var contents []*genai.Content
	for _, t := range history {
		role := genai.Role(genai.RoleUser)
		if t.Role == domain.RoleTutor {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text(), role))
	}

	chat, err := g.client.Chats.Create(ctx, g.modelName, g.generateConfig(true), contents)
	if err != nil {
		return nil, fmt.Errorf("gemini create chat: %w", err)
	}

	return &geminiChat{chat: chat}, nil
}

type geminiChat struct {
	chat *genai.Chat
}

func (c *geminiChat) Send(ctx context.Context, text string) (string, error) {
	res, err := c.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", fmt.Errorf("gemini send message: %w", err)
	}

	out := res.Text()
	if out == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return out, nil
}
