package delivery

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Vovarama1992/voice_relay/internal/lang"
)

type TranslationRequest struct {
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

// parseTranslationRequest never rejects missing codes: they default to en/hi.
func parseTranslationRequest(body []byte) (TranslationRequest, error) {
	var req TranslationRequest

	body = bytes.TrimSpace(body)
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return TranslationRequest{}, fmt.Errorf("invalid json: %w", err)
		}
	}

	if req.SourceLang == "" {
		req.SourceLang = lang.DefaultSource
	}
	if req.TargetLang == "" {
		req.TargetLang = lang.DefaultTarget
	}
	return req, nil
}
