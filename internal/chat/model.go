package chat

import (
	"context"

	"ngo-backend/internal/domain"
)

// FunctionCall is a tool request emitted by the model.
type FunctionCall struct {
	Name string
	Args map[string]any
}

// FunctionResponse answers one FunctionCall.
type FunctionResponse struct {
	Name     string
	Response map[string]any
}

// Turn is one model answer: text, tool calls, or both.
type Turn struct {
	Text  string
	Calls []FunctionCall
}

type Session interface {
	SendText(ctx context.Context, text string) (Turn, error)
	SendFunctionResponses(ctx context.Context, responses []FunctionResponse) (Turn, error)
}

type Model interface {
	StartSession(history []domain.ChatMessage) Session
}
