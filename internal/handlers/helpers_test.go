package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/peer-relay/config"
	"github.com/mossy-p/peer-relay/internal/codec"
	"github.com/mossy-p/peer-relay/internal/models"
	"github.com/mossy-p/peer-relay/internal/rooms"
	"github.com/mossy-p/peer-relay/internal/signaling"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	engine     *gin.Engine
	registry   *rooms.Registry
	router     *signaling.Router
	signaling  *SignalingHandler
	uploads    *UploadHandler
	recordings string
}

func newTestEnv(t *testing.T, wire string, allowedOrigins ...string) *testEnv {
	t.Helper()

	c, err := codec.New(wire)
	if err != nil {
		t.Fatalf("codec.New: %v", err)
	}

	dir := t.TempDir()
	static := filepath.Join(dir, "public")
	if err := os.MkdirAll(static, 0o755); err != nil {
		t.Fatalf("mkdir static: %v", err)
	}
	if err := os.WriteFile(filepath.Join(static, "join.html"), []byte("<h1>join</h1>"), 0o644); err != nil {
		t.Fatalf("write static file: %v", err)
	}
	recordings := filepath.Join(dir, "recordings")

	uploads, err := NewUploadHandler(recordings, 1<<20)
	if err != nil {
		t.Fatalf("NewUploadHandler: %v", err)
	}

	env := &testEnv{
		registry:   rooms.NewRegistry(rooms.NewMemoryStore()),
		router:     signaling.NewRouter(),
		uploads:    uploads,
		recordings: recordings,
	}
	env.signaling = NewSignalingHandler(env.router, c, SignalingOptions{})

	cfg := &config.Config{
		Environment:    "test",
		AllowedOrigins: allowedOrigins,
		StaticDir:      static,
		RecordingsDir:  recordings,
	}
	env.engine = SetupRouter(cfg, Server{
		Rooms:     NewRoomHandler(env.registry, env.router),
		Uploads:   env.uploads,
		Signaling: env.signaling,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status=%d body=%s, want %d", w.Code, w.Body.String(), want)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

type discardSender struct{}

func (discardSender) Send(models.Event) error { return nil }
