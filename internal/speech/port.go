package speech

import (
	"context"

	"github.com/Vovarama1992/voice_relay/internal/audio"
)

type Reason int

const (
	ReasonNoMatch Reason = iota
	ReasonRecognizedSpeech
	ReasonCanceled
)

func (r Reason) String() string {
	switch r {
	case ReasonRecognizedSpeech:
		return "recognized_speech"
	case ReasonCanceled:
		return "canceled"
	default:
		return "no_match"
	}
}

// Recognition is the outcome of one recognition attempt.
type Recognition struct {
	Reason Reason
	Text   string
}

func (r Recognition) Recognized() bool { return r.Reason == ReasonRecognizedSpeech }

type STTClient interface {
	Recognize(ctx context.Context, wav []byte, locale string) (Recognition, error) // голос → текст
}

type TTSClient interface {
	Synthesize(ctx context.Context, voice, text string) ([]byte, error) // текст → WAV
}

type Capturer interface {
	CaptureUtterance(ctx context.Context) (audio.Utterance, error)
}

type Player interface {
	Play(ctx context.Context, samples []int16, sampleRate int) error
}
