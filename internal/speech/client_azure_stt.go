package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var ErrProviderStatus = errors.New("speech provider error")

type AzureSTTClient struct {
	key     string
	baseURL string
	client  *http.Client
}

func NewAzureSTTClient(key, region string) *AzureSTTClient {
	return &AzureSTTClient{
		key:     key,
		baseURL: fmt.Sprintf("https://%s.stt.speech.microsoft.com", region),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type azureRecognition struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
}

// Recognize sends one short-audio WAV (16 kHz mono PCM) for a single recognition.
func (c *AzureSTTClient) Recognize(ctx context.Context, wav []byte, locale string) (Recognition, error) {
	q := url.Values{}
	q.Set("language", locale)
	q.Set("format", "simple")
	endpoint := c.baseURL + "/speech/recognition/conversation/cognitiveservices/v1?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(wav))
	if err != nil {
		return Recognition{}, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Recognition{}, fmt.Errorf("azure stt request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Recognition{}, fmt.Errorf("read azure stt response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Recognition{}, fmt.Errorf("%w: stt status %d: %s", ErrProviderStatus, resp.StatusCode, body)
	}

	var parsed azureRecognition
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Recognition{}, fmt.Errorf("decode azure stt: %w", err)
	}

	return Recognition{
		Reason: reasonFromStatus(parsed.RecognitionStatus),
		Text:   parsed.DisplayText,
	}, nil
}

func reasonFromStatus(status string) Reason {
	switch status {
	case "Success":
		return ReasonRecognizedSpeech
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return ReasonNoMatch
	default:
		return ReasonCanceled
	}
}
