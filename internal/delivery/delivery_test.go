package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/voice_relay/internal/translator"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type call struct{ source, target string }

type fakeRunner struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (f *fakeRunner) Run(_ context.Context, source, target string) (translator.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{source, target})
	if f.err != nil {
		return translator.Result{}, f.err
	}
	if source == "silent" {
		return translator.Result{}, nil
	}
	return translator.Result{
		Original:           "orig-" + source,
		TranslatedQuery:    "query-" + target,
		AgentResponse:      "agent-" + target,
		TranslatedResponse: "back-" + source,
	}, nil
}

func (f *fakeRunner) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeRunner) callsSnapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func newTestServer(t *testing.T, runner translator.Runner, perMinute int) *httptest.Server {
	t.Helper()
	return newWSTestServer(t, runner, perMinute, []string{"*"}, 0)
}

func newWSTestServer(t *testing.T, runner translator.Runner, perMinute int, origins []string, settle time.Duration) *httptest.Server {
	t.Helper()

	zl := logger.NewZapLogger(zap.NewNop().Sugar())
	r := chi.NewRouter()
	RegisterRoutes(r,
		NewTranslateHandler(runner, zl),
		NewWSHandler(runner, zl, origins, time.Second, settle),
		perMinute,
	)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postTranslate(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Post(url+"/translate", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestTranslateDefaultsLanguages(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	srv := newTestServer(t, runner, 0)

	resp, body := postTranslate(t, srv.URL, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, map[string]string{
		"original":            "orig-en",
		"translated_query":    "query-hi",
		"agent_response":      "agent-hi",
		"translated_response": "back-en",
	}, got)
	require.Equal(t, []call{{"en", "hi"}}, runner.callsSnapshot())

	_, _ = postTranslate(t, srv.URL, `{"targetLang":"ko"}`)
	require.Equal(t, call{"en", "ko"}, runner.callsSnapshot()[1])
}

func TestTranslateNoSpeechIsStillOK(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeRunner{}, 0)

	resp, body := postTranslate(t, srv.URL, `{"sourceLang":"silent","targetLang":"hi"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"original":"","translated_query":"","agent_response":"","translated_response":""}`, string(body))
}

func TestTranslateUnknownCodePassesThrough(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	srv := newTestServer(t, runner, 0)

	resp, _ := postTranslate(t, srv.URL, `{"sourceLang":"xx","targetLang":"xx"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []call{{"xx", "xx"}}, runner.callsSnapshot())
}

func TestTranslateRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	srv := newTestServer(t, runner, 0)

	resp, _ := postTranslate(t, srv.URL, `{"sourceLang":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Empty(t, runner.callsSnapshot())
}

func TestTranslatePipelineFailureIs500(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("azure down")}
	srv := newTestServer(t, runner, 0)

	resp, body := postTranslate(t, srv.URL, `{}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.NotContains(t, string(body), "azure down")
}

func TestTranslateRateLimited(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeRunner{}, 1)

	resp, _ := postTranslate(t, srv.URL, `{}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = postTranslate(t, srv.URL, `{}`)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestStaticRoutes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeRunner{}, 0)

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, "pong", string(b))

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(b), "Voice Relay")

	resp, err = http.Get(srv.URL + "/static/script.js")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/languages")
	require.NoError(t, err)
	var langs []map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&langs))
	resp.Body.Close()
	require.Len(t, langs, 5)
	require.Equal(t, "en", langs[0]["code"])
}

func mustDialWS(t *testing.T, srvURL string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srvURL, "http") + "/ws/translate"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func mustReadFrame(t *testing.T, conn *websocket.Conn) map[string]string {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	mt, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, mt)

	var out map[string]string
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestWSMatchesHTTPResponse(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeRunner{}, 0)
	body := `{"sourceLang":"en","targetLang":"ja"}`

	_, httpBody := postTranslate(t, srv.URL, body)
	var want map[string]string
	require.NoError(t, json.Unmarshal(httpBody, &want))

	conn := mustDialWS(t, srv.URL)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(body)))
	require.Equal(t, want, mustReadFrame(t, conn))
}

func TestWSOneReplyPerFrameInOrder(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeRunner{}, 0)
	conn := mustDialWS(t, srv.URL)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"sourceLang":"en","targetLang":"ja"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"sourceLang":"ko","targetLang":"zh"}`)))

	first := mustReadFrame(t, conn)
	second := mustReadFrame(t, conn)
	require.Equal(t, "orig-en", first["original"])
	require.Equal(t, "orig-ko", second["original"])

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestWSMalformedFrameKeepsConnection(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	srv := newTestServer(t, runner, 0)
	conn := mustDialWS(t, srv.URL)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	frame := mustReadFrame(t, conn)
	require.NotEmpty(t, frame["error"])
	require.Empty(t, runner.callsSnapshot())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"sourceLang":"hi","targetLang":"en"}`)))
	frame = mustReadFrame(t, conn)
	require.Equal(t, "orig-hi", frame["original"])
}

func TestWSPipelineErrorKeepsConnection(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("quota exceeded")}
	srv := newTestServer(t, runner, 0)
	conn := mustDialWS(t, srv.URL)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{}`)))
	frame := mustReadFrame(t, conn)
	require.Equal(t, "translation failed", frame["error"])

	runner.setErr(nil)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"sourceLang":"xx"}`)))
	frame = mustReadFrame(t, conn)
	require.Equal(t, "orig-xx", frame["original"])
	require.Equal(t, call{"xx", "hi"}, runner.callsSnapshot()[1])
}

func TestParseTranslationRequest(t *testing.T) {
	t.Parallel()

	req, err := parseTranslationRequest([]byte("  "))
	require.NoError(t, err)
	require.Equal(t, TranslationRequest{SourceLang: "en", TargetLang: "hi"}, req)

	req, err = parseTranslationRequest([]byte(`{"sourceLang":"ja"}`))
	require.NoError(t, err)
	require.Equal(t, TranslationRequest{SourceLang: "ja", TargetLang: "hi"}, req)

	_, err = parseTranslationRequest([]byte(`[1,2]`))
	require.Error(t, err)
}

// panicOnceRunner blows up on its first run and behaves normally afterwards.
type panicOnceRunner struct {
	fakeRunner
	panicked bool
}

func (p *panicOnceRunner) Run(ctx context.Context, source, target string) (translator.Result, error) {
	p.mu.Lock()
	first := !p.panicked
	p.panicked = true
	p.mu.Unlock()

	if first {
		panic("provider exploded")
	}
	return p.fakeRunner.Run(ctx, source, target)
}

func TestWSPanicInPipelineReportsErrorFrame(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &panicOnceRunner{}, 0)
	conn := mustDialWS(t, srv.URL)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{}`)))
	frame := mustReadFrame(t, conn)
	require.Equal(t, "translation failed", frame["error"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{}`)))
	frame = mustReadFrame(t, conn)
	require.Equal(t, "orig-en", frame["original"])
}

func TestWSSettleDelayBetweenFrames(t *testing.T) {
	t.Parallel()

	const settle = 50 * time.Millisecond
	srv := newWSTestServer(t, &fakeRunner{}, 0, []string{"*"}, settle)
	conn := mustDialWS(t, srv.URL)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"sourceLang":"en","targetLang":"ja"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"sourceLang":"ko","targetLang":"zh"}`)))

	first := mustReadFrame(t, conn)
	firstAt := time.Now()
	second := mustReadFrame(t, conn)
	require.GreaterOrEqual(t, time.Since(firstAt), settle)

	require.Equal(t, "orig-en", first["original"])
	require.Equal(t, "orig-ko", second["original"])
}

func dialWithOrigin(srvURL, origin string) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(srvURL, "http") + "/ws/translate"
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func TestWSRejectsForeignOrigin(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	srv := newWSTestServer(t, runner, 0, []string{"https://relay.example"}, 0)

	conn, resp, err := dialWithOrigin(srv.URL, "https://evil.example")
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Nil(t, conn)

	conn, _, err = dialWithOrigin(srv.URL, "https://relay.example")
	require.NoError(t, err)
	conn.Close()

	conn, _, err = dialWithOrigin(srv.URL, "")
	require.NoError(t, err)
	conn.Close()

	require.Empty(t, runner.callsSnapshot())
}

func TestWSWildcardOriginAllowsAny(t *testing.T) {
	t.Parallel()

	srv := newWSTestServer(t, &fakeRunner{}, 0, []string{"*"}, 0)

	conn, _, err := dialWithOrigin(srv.URL, "https://anything.example")
	require.NoError(t, err)
	conn.Close()
}
