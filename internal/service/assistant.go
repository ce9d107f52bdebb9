package service

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/metallic-erp/support-hub/internal/config"
	"github.com/metallic-erp/support-hub/internal/domain"
)

const resolutionNoteFallback = "There was an issue generating the resolution note, but the ticket has been marked as resolved. The technical team has fixed the reported problem."

const assistantFallback = "I'm sorry, I'm having trouble connecting right now. Please try again in a moment."

// AssistantService turns technical resolution notes into client-friendly text
// and powers the support chat assistant. Failures never block the caller:
// every method degrades to a canned fallback.
type AssistantService struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewAssistantService constructs the service. With no API key configured the
// client stays nil and every call returns its fallback immediately.
func NewAssistantService(cfg config.AssistantConfig, logger *zap.Logger) *AssistantService {
	var client *openai.Client
	if cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	} else {
		logger.Warn("assistant api key not configured, responses will use fallbacks")
	}
	return &AssistantService{client: client, model: cfg.Model, logger: logger}
}

// ChatTurn is one message of an assistant conversation. Role is "user" or
// "model".
type ChatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// GenerateResolutionNote rewrites technical notes into a short, friendly
// summary for the ticket's client.
func (s *AssistantService) GenerateResolutionNote(ctx context.Context, ticket domain.Ticket, technicalNotes string) string {
	if s.client == nil {
		return resolutionNoteFallback
	}

	prompt := fmt.Sprintf(
		"A support ticket titled %q (%s) has been resolved. The developer's technical notes are:\n\n%s\n\nWrite a short, friendly, non-technical summary for the client explaining that their issue was fixed. Do not mention internal tooling or code.",
		ticket.Title, ticket.Type, technicalNotes)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		s.logger.Error("resolution note generation failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		return resolutionNoteFallback
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

// AskAssistant answers a help question given the conversation so far.
func (s *AssistantService) AskAssistant(ctx context.Context, history []ChatTurn, question string) string {
	if s.client == nil {
		return assistantFallback
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: "You are a helpful support assistant for the Metallic ERP helpdesk. Answer briefly and suggest opening a support ticket when the problem needs a developer.",
		},
	}
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == "model" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: question})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil || len(resp.Choices) == 0 {
		s.logger.Error("assistant chat failed", zap.Error(err))
		return assistantFallback
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
