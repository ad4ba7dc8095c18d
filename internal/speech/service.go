package speech

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Vovarama1992/voice_relay/internal/audio"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// === Единый сервис (и для стт и для ттс) ===

type Service struct {
	stt     STTClient
	tts     TTSClient
	mic     Capturer
	speaker Player
	settle  time.Duration
	log     *zap.Logger
}

// NewService wires providers to devices. settle is the pause after playback
// before the output device is considered idle again.
func NewService(stt STTClient, tts TTSClient, mic Capturer, speaker Player, settle time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		stt:     stt,
		tts:     tts,
		mic:     mic,
		speaker: speaker,
		settle:  settle,
		log:     log,
	}
}

// RecognizeOnce captures a single utterance and runs one recognition attempt.
func (s *Service) RecognizeOnce(ctx context.Context, locale string) (Recognition, error) {
	u, err := s.mic.CaptureUtterance(ctx)
	if err != nil {
		return Recognition{}, fmt.Errorf("capture utterance: %w", err)
	}

	if !u.Voiced {
		s.log.Info("no speech captured", zap.Duration("listened", u.Duration))
		return Recognition{Reason: ReasonNoMatch}, nil
	}

	wav := audio.EncodeWAV(u.Samples, u.SampleRate)
	s.log.Info("utterance captured",
		zap.String("locale", locale),
		zap.Duration("audio", PCMDuration(len(u.Samples), u.SampleRate)),
		zap.String("size", humanize.Bytes(uint64(len(wav)))),
	)

	rec, err := s.stt.Recognize(ctx, wav, locale)
	if err != nil {
		return Recognition{}, fmt.Errorf("recognize: %w", err)
	}
	s.log.Info("stt result", zap.Stringer("reason", rec.Reason), zap.String("text", rec.Text))
	return rec, nil
}

// Speak synthesizes text with voice, plays it and waits for the device to settle.
func (s *Service) Speak(ctx context.Context, voice, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	data, err := s.tts.Synthesize(ctx, voice, text)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	samples, rate, err := audio.DecodeWAV(data)
	if err != nil {
		return fmt.Errorf("decode synthesized audio: %w", err)
	}

	s.log.Info("playing synthesized speech",
		zap.String("voice", voice),
		zap.Duration("audio", PCMDuration(len(samples), rate)),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
	)

	if err := s.speaker.Play(ctx, samples, rate); err != nil {
		return fmt.Errorf("play: %w", err)
	}

	return s.waitIdle(ctx)
}

func (s *Service) waitIdle(ctx context.Context) error {
	if s.settle <= 0 {
		return nil
	}
	t := time.NewTimer(s.settle)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
