package speech

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const ttsOutputFormat = "riff-16khz-16bit-mono-pcm"

type AzureTTSClient struct {
	key     string
	baseURL string
	client  *http.Client
}

func NewAzureTTSClient(key, region string) *AzureTTSClient {
	return &AzureTTSClient{
		key:     key,
		baseURL: fmt.Sprintf("https://%s.tts.speech.microsoft.com", region),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// TEXT → SPEECH (WAV)
func (c *AzureTTSClient) Synthesize(ctx context.Context, voice, text string) ([]byte, error) {
	ssml, err := buildSSML(voice, text)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cognitiveservices/v1", strings.NewReader(ssml))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", ttsOutputFormat)
	req.Header.Set("User-Agent", "voice_relay")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: tts status %d: %s", ErrProviderStatus, resp.StatusCode, b)
	}

	return io.ReadAll(resp.Body)
}

func buildSSML(voice, text string) (string, error) {
	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return "", fmt.Errorf("escape ssml: %w", err)
	}

	return fmt.Sprintf(
		`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s"><voice name="%s">%s</voice></speak>`,
		voiceLocale(voice), voice, escaped.String(),
	), nil
}

// voiceLocale: "hi-IN-SwaraNeural" → "hi-IN"
func voiceLocale(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 3 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}
