package translator

import (
	"context"

	"github.com/Vovarama1992/voice_relay/internal/speech"
	openai "github.com/sashabaranov/go-openai"
)

type Speech interface {
	RecognizeOnce(ctx context.Context, locale string) (speech.Recognition, error)
	Speak(ctx context.Context, voice, text string) error
}

type ChatClient interface {
	GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

type Responder interface {
	Respond(ctx context.Context, query, targetLang string) (string, error)
}

// Runner is what the transport layer needs from the pipeline.
type Runner interface {
	Run(ctx context.Context, sourceLang, targetLang string) (Result, error)
}

type Result struct {
	Original           string `json:"original"`
	TranslatedQuery    string `json:"translated_query"`
	AgentResponse      string `json:"agent_response"`
	TranslatedResponse string `json:"translated_response"`
}
