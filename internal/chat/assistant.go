package chat

import (
	"context"
	"errors"
	"strings"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/logger"
)

const DefaultMaxToolRounds = 5

const fallbackReply = "Sorry, I could not finish that request. Please try asking in a different way."

var ErrEmptyMessage = errors.New("message is empty")

type Reply struct {
	Text   string  `json:"reply"`
	Action *Action `json:"action,omitempty"`
}

type Assistant struct {
	model     Model
	tools     *Toolbox
	maxRounds int
}

func NewAssistant(model Model, tools *Toolbox, maxRounds int) *Assistant {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}
	return &Assistant{model: model, tools: tools, maxRounds: maxRounds}
}

// Respond sends message after history and resolves tool calls, limited to
// what access allows, until the model answers in text or the round limit is
// reached.
func (a *Assistant) Respond(ctx context.Context, access Access, history []domain.ChatMessage, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.NewValidationError("message", ErrEmptyMessage.Error())
	}

	session := a.model.StartSession(history)
	turn, err := session.SendText(ctx, message)
	if err != nil {
		return nil, err
	}

	reply := &Reply{}
	for round := 0; len(turn.Calls) > 0; round++ {
		if round >= a.maxRounds {
			logger.Warn("Chat tool round limit reached", "rounds", round)
			reply.Text = fallbackReply
			return reply, nil
		}

		responses := make([]FunctionResponse, 0, len(turn.Calls))
		for _, fc := range turn.Calls {
			result, action := a.dispatch(fc, access)
			if action != nil {
				reply.Action = action
			}
			responses = append(responses, FunctionResponse{Name: fc.Name, Response: result.Payload()})
		}

		turn, err = session.SendFunctionResponses(ctx, responses)
		if err != nil {
			return nil, err
		}
	}

	reply.Text = turn.Text
	if reply.Text == "" {
		reply.Text = fallbackReply
	}
	return reply, nil
}

func (a *Assistant) dispatch(fc FunctionCall, access Access) (ToolResult, *Action) {
	call, err := ParseToolCall(fc.Name, fc.Args)
	if err != nil {
		logger.Warn("Rejected tool call", "tool", fc.Name, "error", err)
		return ToolResult{Name: ToolName(fc.Name), Error: err.Error()}, nil
	}
	logger.Debug("Executing tool", "tool", call.Name, "member", call.MemberName)
	return a.tools.Execute(call, access)
}
