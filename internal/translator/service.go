package translator

import (
	"context"
	"fmt"
	"time"

	"github.com/Vovarama1992/voice_relay/internal/lang"
	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type Pipeline struct {
	speech Speech
	chat   ChatClient
	agent  Responder
	log    *zap.Logger
}

var _ Runner = (*Pipeline)(nil)

func NewPipeline(sp Speech, chat ChatClient, agent Responder, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{speech: sp, chat: chat, agent: agent, log: log}
}

func TranslationPrompt(from, to, text string) string {
	return fmt.Sprintf("Translate this from %s to %s: %s",
		lang.Resolve(from).DisplayName, lang.Resolve(to).DisplayName, text)
}

// Run performs one full exchange. A missed recognition returns an empty Result
// and no error; any provider failure aborts the whole exchange.
func (p *Pipeline) Run(ctx context.Context, sourceLang, targetLang string) (Result, error) {
	src := lang.Resolve(sourceLang)
	tgt := lang.Resolve(targetLang)

	log := p.log.With(
		zap.String("exchange", uuid.NewString()),
		zap.String("source", src.Code),
		zap.String("target", tgt.Code),
	)
	start := time.Now()

	// 1) слушаем
	log.Info("listening", zap.String("locale", src.STTLocale))
	rec, err := p.speech.RecognizeOnce(ctx, src.STTLocale)
	if err != nil {
		return Result{}, err
	}
	if !rec.Recognized() {
		log.Info("nothing recognized", zap.Stringer("reason", rec.Reason))
		return Result{}, nil
	}
	original := rec.Text

	// 2) перевод запроса и озвучка
	translatedQuery, err := p.translate(ctx, src.Code, tgt.Code, original)
	if err != nil {
		return Result{}, fmt.Errorf("translate query: %w", err)
	}
	if err := p.speech.Speak(ctx, tgt.TTSVoice, translatedQuery); err != nil {
		return Result{}, fmt.Errorf("speak translated query: %w", err)
	}

	// 3) агент
	agentResponse, err := p.agent.Respond(ctx, translatedQuery, tgt.Code)
	if err != nil {
		return Result{}, err
	}

	// 4) обратный перевод и озвучка
	translatedResponse, err := p.translate(ctx, tgt.Code, src.Code, agentResponse)
	if err != nil {
		return Result{}, fmt.Errorf("translate response: %w", err)
	}
	if err := p.speech.Speak(ctx, src.TTSVoice, translatedResponse); err != nil {
		return Result{}, fmt.Errorf("speak translated response: %w", err)
	}

	log.Info("exchange done", zap.Duration("took", time.Since(start)))

	return Result{
		Original:           original,
		TranslatedQuery:    translatedQuery,
		AgentResponse:      agentResponse,
		TranslatedResponse: translatedResponse,
	}, nil
}

func (p *Pipeline) translate(ctx context.Context, from, to, text string) (string, error) {
	return p.chat.GetCompletion(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: TranslationPrompt(from, to, text)},
	})
}
