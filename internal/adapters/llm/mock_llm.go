package llm

import (
	"context"
	"fmt"

	"github.com/studyhallhq/tutor-agent/internal/domain"
)

// MockLLM is a scriptable stand-in for the text service. Zero value echoes;
// tests set GenerateText / GenerateErr / ChatReply to drive the pipeline.
type MockLLM struct {
	GenerateText  string
	GenerateErr   error
	ChatReply     string
	ChatErr       error
	GenerateCalls int

	// captured inputs, for assertions
	LastPrompt   string
	LastChatText string
}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.GenerateCalls++
	m.LastPrompt = prompt
	if m.GenerateErr != nil {
		return "", m.GenerateErr
	}
	if m.GenerateText != "" {
		return m.GenerateText, nil
	}
	return fmt.Sprintf("generated: %.40q", prompt), nil
}

func (m *MockLLM) StartChat(ctx context.Context, history []domain.Turn) (domain.ChatSession, error) {
	return &mockChat{parent: m, seeded: len(history)}, nil
}

type mockChat struct {
	parent *MockLLM
	seeded int
}

func (c *mockChat) Send(ctx context.Context, text string) (string, error) {
	c.parent.LastChatText = text
	if c.parent.ChatErr != nil {
		return "", c.parent.ChatErr
	}
	if c.parent.ChatReply != "" {
		return c.parent.ChatReply, nil
	}
	return fmt.Sprintf("I hear you. You said %q. Tell me more.", text), nil
}
