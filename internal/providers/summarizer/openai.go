package summarizer

import (
	"context"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a memory consolidation assistant. Summarize the supplied facts into short, dense prose. Output plain text only."

// OpenAI synthesizes prose with a chat-completion model. Prompts are
// token-truncated so a large fact day cannot blow the context window.
type OpenAI struct {
	client          *openai.Client
	model           string
	maxPromptTokens int
}

func NewOpenAI(apiKey, model string, maxPromptTokens int) *OpenAI {
	return &OpenAI{
		client:          openai.NewClient(apiKey),
		model:           model,
		maxPromptTokens: maxPromptTokens,
	}
}

func (o *OpenAI) Summarize(ctx context.Context, text string) (string, error) {
	bounded, err := truncateTokens(text, o.maxPromptTokens)
	if err != nil {
		return "", fmt.Errorf("bound prompt: %w", err)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: bounded},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// truncateTokens cuts text to at most max tokens under cl100k_base.
func truncateTokens(text string, max int) (string, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return "", err
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= max {
		return text, nil
	}
	return enc.Decode(tokens[:max]), nil
}
