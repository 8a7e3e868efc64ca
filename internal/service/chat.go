package service

import (
	"context"
	"errors"
	"fmt"

	"ngo-backend/internal/chat"
	"ngo-backend/internal/domain"
)

type chatService struct {
	assistant *chat.Assistant
}

func NewChatService(model chat.Model, st StateReader, maxRounds int) ChatService {
	return &chatService{
		assistant: chat.NewAssistant(model, chat.NewToolbox(st), maxRounds),
	}
}

func (s *chatService) Reply(ctx context.Context, access chat.Access, history []domain.ChatMessage, message string) (*chat.Reply, error) {
	for i, m := range history {
		if m.Role != domain.ChatRoleUser && m.Role != domain.ChatRoleModel {
			return nil, domain.NewValidationError("history", fmt.Sprintf("entry %d: role must be user or model", i))
		}
	}
	reply, err := s.assistant.Respond(ctx, access, history, message)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: chat model: %v", domain.ErrExternal, err)
	}
	return reply, nil
}
