package ai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

type ChatClient interface {
	GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

type Responder interface {
	// Respond отвечает на query строго на языке targetLang.
	Respond(ctx context.Context, query, targetLang string) (string, error)
}
