package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mossy-p/peer-relay/internal/models"
)

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("recording", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func postUpload(env *testEnv, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func TestUpload_StoresAndServesRecording(t *testing.T) {
	env := newTestEnv(t, "json")
	at := time.UnixMilli(1700000000123)
	env.uploads.now = func() time.Time { return at }

	content := []byte("webm bytes")
	body, ct := multipartBody(t, map[string]string{"room": "R 1"}, "take 1.webm", content)
	w := postUpload(env, body, ct)
	expectStatus(t, w, http.StatusOK)

	var resp models.UploadResponse
	decodeBody(t, w, &resp)
	if resp.URL != "/recordings/R_1-1700000000123-take_1.webm" {
		t.Fatalf("URL=%q", resp.URL)
	}

	stored, err := os.ReadFile(filepath.Join(env.recordings, "R_1-1700000000123-take_1.webm"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(stored, content) {
		t.Fatalf("stored=%q, want %q", stored, content)
	}

	w = env.do(t, http.MethodGet, resp.URL, nil)
	expectStatus(t, w, http.StatusOK)
	if !bytes.Equal(w.Body.Bytes(), content) {
		t.Fatalf("served=%q, want %q", w.Body.Bytes(), content)
	}
}

func TestUpload_DefaultsRoomToUnknown(t *testing.T) {
	env := newTestEnv(t, "json")
	env.uploads.now = func() time.Time { return time.UnixMilli(42) }

	body, ct := multipartBody(t, nil, "a.webm", []byte("x"))
	w := postUpload(env, body, ct)
	expectStatus(t, w, http.StatusOK)

	var resp models.UploadResponse
	decodeBody(t, w, &resp)
	if resp.URL != "/recordings/unknown-42-a.webm" {
		t.Fatalf("URL=%q", resp.URL)
	}
}

func TestUpload_NoFile(t *testing.T) {
	env := newTestEnv(t, "json")

	body, ct := multipartBody(t, map[string]string{"room": "R1"}, "", nil)
	expectStatus(t, postUpload(env, body, ct), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodPost, "/upload", map[string]string{"room": "R1"}), http.StatusBadRequest)
}

func TestUpload_TooLarge(t *testing.T) {
	env := newTestEnv(t, "json")
	env.uploads.maxBytes = 1024

	body, ct := multipartBody(t, nil, "big.webm", bytes.Repeat([]byte("x"), 8*1024))
	expectStatus(t, postUpload(env, body, ct), http.StatusRequestEntityTooLarge)

	entries, err := os.ReadDir(env.recordings)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("recordings dir has %d entries, want none", len(entries))
	}
}

func TestRecordingName(t *testing.T) {
	at := time.UnixMilli(1000)
	tests := []struct {
		room, original, want string
	}{
		{room: "R1", original: "clip.webm", want: "R1-1000-clip.webm"},
		{room: "../../etc", original: "passwd", want: ".._.._etc-1000-passwd"},
		{room: "R1", original: `..\..\win.ini`, want: "R1-1000-.._.._win.ini"},
		{room: "kör", original: "ü ber.ogg", want: "k_r-1000-__ber.ogg"},
	}
	for _, tt := range tests {
		got := recordingName(tt.room, at, tt.original)
		if got != tt.want {
			t.Fatalf("recordingName(%q, %q)=%q, want %q", tt.room, tt.original, got, tt.want)
		}
		if strings.ContainsAny(got, `/\`) {
			t.Fatalf("recordingName(%q, %q)=%q contains a separator", tt.room, tt.original, got)
		}
	}
}
