package audio

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// VoiceDetector classifies one capture frame as speech or not.
type VoiceDetector interface {
	IsSpeech(frame []int16) (bool, error)
}

type WebRTCDetector struct {
	vad        *webrtcvad.VAD
	sampleRate int
}

// NewWebRTCDetector accepts modes 0-3; frames must be 10, 20 or 30 ms long.
func NewWebRTCDetector(sampleRate, mode int) (*WebRTCDetector, error) {
	switch sampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("invalid sample rate %d for vad", sampleRate)
	}

	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("create vad: %w", err)
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("set vad mode: %w", err)
	}

	return &WebRTCDetector{vad: v, sampleRate: sampleRate}, nil
}

func (d *WebRTCDetector) IsSpeech(frame []int16) (bool, error) {
	b := make([]byte, len(frame)*2)
	for i, s := range frame {
		b[i*2] = byte(s)
		b[i*2+1] = byte(s >> 8)
	}

	active, err := d.vad.Process(d.sampleRate, b)
	if err != nil {
		return false, fmt.Errorf("vad process: %w", err)
	}
	return active, nil
}
