package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amorahq/amora/internal/chat"
	"github.com/amorahq/amora/internal/config"
	"github.com/amorahq/amora/internal/database"
	"github.com/amorahq/amora/internal/fal"
	"github.com/amorahq/amora/internal/server"
)

type fakeRunner struct {
	events []any
	req    chat.Request
}

func (f *fakeRunner) Run(_ context.Context, req chat.Request, sink chat.Sink) error {
	f.req = req
	for _, e := range f.events {
		if err := sink.Send(e); err != nil {
			return err
		}
	}
	return nil
}

type fakeImages struct {
	url string
	err error
}

func (f *fakeImages) GenerateForModel(_ context.Context, _, _, _, _ string) (string, error) {
	return f.url, f.err
}

type fakeImageStore struct {
	database.Store
	images []database.GeneratedImage
}

func (f *fakeImageStore) RecentImages(_ context.Context, _ int) ([]database.GeneratedImage, error) {
	return f.images, nil
}

func newTestHandler(runner server.ChatRunner, images server.ImageService, store database.Store) http.Handler {
	srv := server.New(config.ServerConfig{Listen: ":0"}, server.Deps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Chat:   runner,
		Images: images,
		Store:  store,
	})
	return srv.Handler()
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestChatEndpointStreamFormat(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{events: []any{
		chat.AskPreferenceEvent{Action: "ask_preference", Question: "hi", QuestionID: "userName"},
	}}
	handler := newTestHandler(runner, &fakeImages{}, &fakeImageStore{})

	w := postJSON(t, handler, "/chat/gemini", `{"messages":[]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	if !strings.HasSuffix(body, "data: [DONE]\r\n\r\n") {
		t.Errorf("body %q missing terminal frame", body)
	}
	if strings.Count(body, "data: [DONE]") != 1 {
		t.Errorf("terminal frame emitted %d times", strings.Count(body, "data: [DONE]"))
	}

	frames := strings.Split(strings.TrimSuffix(body, "\r\n\r\n"), "\r\n\r\n")
	if len(frames) != 2 {
		t.Fatalf("frames = %d (%q), want 2", len(frames), body)
	}
	var event map[string]any
	if err := json.Unmarshal([]byte(strings.TrimPrefix(frames[0], "data: ")), &event); err != nil {
		t.Fatalf("frame %q is not JSON: %v", frames[0], err)
	}
	if event["action"] != "ask_preference" || event["questionId"] != "userName" {
		t.Errorf("event = %v", event)
	}
}

func TestChatEndpointUnsupportedProvider(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(&fakeRunner{}, &fakeImages{}, &fakeImageStore{})
	w := postJSON(t, handler, "/chat/openai", `{"messages":[]}`)

	body := w.Body.String()
	if !strings.Contains(body, `"error"`) {
		t.Errorf("body %q missing error frame", body)
	}
	if !strings.HasSuffix(body, "data: [DONE]\r\n\r\n") {
		t.Errorf("body %q missing terminal frame", body)
	}
}

func TestChatEndpointInvalidBody(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(&fakeRunner{}, &fakeImages{}, &fakeImageStore{})
	w := postJSON(t, handler, "/chat/gemini", `{not json`)

	// Headers are committed before parsing, so the failure is in-band.
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "invalid request body") {
		t.Errorf("body %q missing error frame", body)
	}
	if !strings.HasSuffix(body, "data: [DONE]\r\n\r\n") {
		t.Errorf("body %q missing terminal frame", body)
	}
}

func TestImagesEndpoint(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(&fakeRunner{}, &fakeImages{url: "https://img.example/a.png"}, &fakeImageStore{})
	w := postJSON(t, handler, "/images/fal", `{"model":"flux-pro","prompt":"a meadow"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["image"] != "https://img.example/a.png" {
		t.Errorf("image = %q", resp["image"])
	}
}

func TestImagesEndpointErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		images     server.ImageService
		wantStatus int
	}{
		{"unknown model", "/images/fal", &fakeImages{err: fal.ErrUnknownModel}, http.StatusBadRequest},
		{"missing prompt", "/images/fal", &fakeImages{err: fal.ErrMissingPrompt}, http.StatusBadRequest},
		{"not configured", "/images/fal", &fakeImages{err: fal.ErrNotConfigured}, http.StatusInternalServerError},
		{"soft failure", "/images/fal", &fakeImages{}, http.StatusInternalServerError},
		{"unsupported provider", "/images/dalle", &fakeImages{url: "x"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := newTestHandler(&fakeRunner{}, tt.images, &fakeImageStore{})
			w := postJSON(t, handler, tt.path, `{"model":"flux-pro","prompt":"x"}`)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), `"error"`) {
				t.Errorf("body %q missing error field", w.Body.String())
			}
		})
	}
}

func TestRecentImagesEndpoint(t *testing.T) {
	t.Parallel()

	store := &fakeImageStore{images: []database.GeneratedImage{{
		ID:        "abc",
		Kind:      "chat",
		Prompt:    "sunset",
		URL:       "https://img.example/s.png",
		CreatedAt: time.Now().UTC(),
	}}}
	handler := newTestHandler(&fakeRunner{}, &fakeImages{}, store)

	req := httptest.NewRequest(http.MethodGet, "/images/recent?limit=5", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Images []map[string]any `json:"images"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(resp.Images) != 1 || resp.Images[0]["image"] != "https://img.example/s.png" {
		t.Errorf("images = %v", resp.Images)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(&fakeRunner{}, &fakeImages{}, &fakeImageStore{})
	req := httptest.NewRequest(http.MethodOptions, "/chat/gemini", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
