package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIProvider_Speak(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3audio"))
	}))
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL + "/v1/", APIKey: "test-key"})
	rc, err := p.Speak(context.Background(), SpeechRequest{Model: "tts-1", Voice: "alloy", Format: "mp3", Input: "hello"})
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil || string(b) != "ID3audio" {
		t.Fatalf("unexpected body %q err=%v", b, err)
	}
	if got["input"] != "hello" || got["voice"] != "alloy" || got["model"] != "tts-1" {
		t.Fatalf("unexpected request body: %v", got)
	}
}

func TestOpenAIProvider_SpeakError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL + "/v1"})
	if _, err := p.Speak(context.Background(), SpeechRequest{Model: "tts-1", Voice: "alloy", Input: "x"}); err == nil {
		t.Fatalf("expected error from failing backend")
	}
	var nilProvider *OpenAIProvider
	if _, err := nilProvider.Speak(context.Background(), SpeechRequest{}); err == nil {
		t.Fatalf("expected error for nil provider")
	}
}
