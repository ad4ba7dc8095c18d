package delivery

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/voice_relay/internal/lang"
	"github.com/Vovarama1992/voice_relay/internal/translator"
)

type TranslateHandler struct {
	pipeline translator.Runner
	log      *logger.ZapLogger
}

func NewTranslateHandler(pipeline translator.Runner, log *logger.ZapLogger) *TranslateHandler {
	return &TranslateHandler{pipeline: pipeline, log: log}
}

// POST /translate
func (h *TranslateHandler) Translate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		http.Error(w, "failed to read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	req, err := parseTranslationRequest(body)
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "bad translate request", Error: err})
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.pipeline.Run(r.Context(), req.SourceLang, req.TargetLang)
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "translation failed", Error: err})
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

// GET /languages
func (h *TranslateHandler) Languages(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(lang.All())
}
