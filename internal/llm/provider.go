package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Speaker is the minimal interface needed to turn text into audio. Any
// OpenAI-compatible speech backend can be adapted to it.
type Speaker interface {
	Speak(ctx context.Context, req SpeechRequest) (io.ReadCloser, error)
}

// SpeechRequest describes one synthesis call.
type SpeechRequest struct {
	Model  string
	Voice  string
	Format string
	Input  string
}

// Config selects an OpenAI-compatible endpoint.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// OpenAIProvider adapts *openai.Client to Speaker.
type OpenAIProvider struct {
	Inner *openai.Client
}

// New returns a provider for cfg. An empty BaseURL uses the library default.
func New(cfg Config) *OpenAIProvider {
	oc := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		oc.BaseURL = base
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	return &OpenAIProvider{Inner: openai.NewClientWithConfig(oc)}
}

func (p *OpenAIProvider) Speak(ctx context.Context, req SpeechRequest) (io.ReadCloser, error) {
	if p == nil || p.Inner == nil {
		return nil, errors.New("llm: no client configured")
	}
	resp, err := p.Inner.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(req.Model),
		Input:          req.Input,
		Voice:          openai.SpeechVoice(req.Voice),
		ResponseFormat: openai.SpeechResponseFormat(req.Format),
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
