package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/logger"
)

const systemPrompt = `You are the assistant of %s, a non-profit organization.
Answer questions about members, donations and the organization's finances.
Use the tools to look up members and their donation history instead of guessing.
When a tool returns an error, tell the user what went wrong in plain words.
Reply in the language the user writes in.`

// GeminiModel talks to the Gemini API through the generative-ai-go SDK.
type GeminiModel struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiModel(ctx context.Context, apiKey, modelName, orgName string) (*GeminiModel, error) {
	logger.ExternalServiceCall("gemini", "NewClient", "model", modelName)
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	logger.ExternalServiceResult("gemini", "NewClient", err)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(fmt.Sprintf(systemPrompt, orgName))},
	}
	model.Tools = []*genai.Tool{toolDeclarations()}

	return &GeminiModel{client: client, model: model}, nil
}

func (g *GeminiModel) Close() error {
	return g.client.Close()
}

func toolDeclarations() *genai.Tool {
	memberArg := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			argMemberName: {Type: genai.TypeString, Description: "Full name of the member"},
		},
		Required: []string{argMemberName},
	}
	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        string(ToolGetMemberList),
				Description: "Lists the names of all registered members.",
			},
			{
				Name:        string(ToolGetMemberTransactionHistory),
				Description: "Returns the donations made by one member, newest first.",
				Parameters:  memberArg,
			},
			{
				Name:        string(ToolPrepareMemberPdfDownload),
				Description: "Prepares the profile document of one member for download.",
				Parameters:  memberArg,
			},
			{
				Name:        string(ToolPrepareFinancialStatementDownload),
				Description: "Prepares the organization's financial statement for download.",
			},
		},
	}
}

func (g *GeminiModel) StartSession(history []domain.ChatMessage) Session {
	cs := g.model.StartChat()
	for _, msg := range history {
		role := "user"
		if msg.Role == domain.ChatRoleModel {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return &geminiSession{cs: cs}
}

type geminiSession struct {
	cs *genai.ChatSession
}

func (s *geminiSession) SendText(ctx context.Context, text string) (Turn, error) {
	return s.send(ctx, genai.Text(text))
}

func (s *geminiSession) SendFunctionResponses(ctx context.Context, responses []FunctionResponse) (Turn, error) {
	parts := make([]genai.Part, 0, len(responses))
	for _, r := range responses {
		parts = append(parts, genai.FunctionResponse{Name: r.Name, Response: r.Response})
	}
	return s.send(ctx, parts...)
}

func (s *geminiSession) send(ctx context.Context, parts ...genai.Part) (Turn, error) {
	logger.ExternalServiceCall("gemini", "SendMessage", "parts", len(parts))
	resp, err := s.cs.SendMessage(ctx, parts...)
	logger.ExternalServiceResult("gemini", "SendMessage", err)
	if err != nil {
		return Turn{}, err
	}
	return turnFrom(resp), nil
}

// turnFrom reads the first candidate only.
func turnFrom(resp *genai.GenerateContentResponse) Turn {
	var turn Turn
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return turn
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			turn.Calls = append(turn.Calls, FunctionCall{Name: p.Name, Args: p.Args})
		}
	}
	turn.Text = strings.TrimSpace(text.String())
	return turn
}
