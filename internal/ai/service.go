package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/Vovarama1992/voice_relay/internal/lang"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type AiService struct {
	chat ChatClient
	log  *zap.Logger
}

var _ Responder = (*AiService)(nil)

func NewAiService(chat ChatClient, log *zap.Logger) *AiService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AiService{chat: chat, log: log}
}

func SystemPrompt(targetLang string) string {
	return fmt.Sprintf("You are a helpful AI assistant. Respond only in %s.", lang.Resolve(targetLang).DisplayName)
}

// Respond makes exactly one chat completion: system instruction + user query.
func (s *AiService) Respond(ctx context.Context, query, targetLang string) (string, error) {
	start := time.Now()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt(targetLang)},
		{Role: openai.ChatMessageRoleUser, Content: query},
	}

	reply, err := s.chat.GetCompletion(ctx, messages)
	s.log.Info("agent reply",
		zap.String("lang", targetLang),
		zap.Duration("took", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		return "", fmt.Errorf("agent completion: %w", err)
	}
	return reply, nil
}
