package delivery

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/voice_relay/internal/translator"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

type WSHandler struct {
	pipeline translator.Runner
	log      *logger.ZapLogger
	upgrader websocket.Upgrader
	timeout  time.Duration
	settle   time.Duration
}

// NewWSHandler: origins is the CORS allow-list ("*" allows any), timeout bounds
// one pipeline run, settle is the pause after each reply before the next frame is read.
func NewWSHandler(pipeline translator.Runner, log *logger.ZapLogger, origins []string, timeout, settle time.Duration) *WSHandler {
	return &WSHandler{
		pipeline: pipeline,
		log:      log,
		timeout:  timeout,
		settle:   settle,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
	}
}

// originChecker: запросы без Origin (не из браузера) пропускаем всегда.
func originChecker(origins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// WS /ws/translate
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "websocket upgrade failed", Error: err})
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.log.Log(logger.LogEntry{Level: "info", Message: "websocket connected: " + conn.RemoteAddr().String()})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				h.log.Log(logger.LogEntry{Level: "error", Message: "websocket read error", Error: err})
			} else {
				h.log.Log(logger.LogEntry{Level: "info", Message: "websocket disconnected"})
			}
			return
		}

		if mt != websocket.TextMessage {
			if !h.write(conn, errorEnvelope{Error: "expected text frame"}) {
				return
			}
			continue
		}

		if !h.write(conn, h.handleFrame(ctx, data)) {
			return
		}

		if !h.wait(ctx) {
			return
		}
	}
}

// handleFrame returns either a translator.Result or an errorEnvelope.
// A panic inside the pipeline is reported as an error frame; the socket stays open.
func (h *WSHandler) handleFrame(ctx context.Context, data []byte) (out any) {
	defer func() {
		if p := recover(); p != nil {
			h.log.Log(logger.LogEntry{Level: "error", Message: "websocket translation panicked", Error: fmt.Errorf("panic: %v", p)})
			out = errorEnvelope{Error: "translation failed"}
		}
	}()

	req, err := parseTranslationRequest(data)
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "bad websocket frame", Error: err})
		return errorEnvelope{Error: err.Error()}
	}

	runCtx := ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res, err := h.pipeline.Run(runCtx, req.SourceLang, req.TargetLang)
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "error", Message: "websocket translation failed", Error: err})
		return errorEnvelope{Error: "translation failed"}
	}
	return res
}

func (h *WSHandler) write(conn *websocket.Conn, v any) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(v); err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "websocket write failed", Error: err})
		return false
	}
	return true
}

func (h *WSHandler) wait(ctx context.Context) bool {
	if h.settle <= 0 {
		return true
	}
	t := time.NewTimer(h.settle)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
