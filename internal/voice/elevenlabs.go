package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const elevenBaseURL = "https://api.elevenlabs.io"

// ElevenLabs synthesizes MP3 through the ElevenLabs streaming endpoint.
type ElevenLabs struct {
	APIKey  string
	VoiceID string
	ModelID string
	BaseURL string
	Client  *http.Client
}

func NewElevenLabs(apiKey, voiceID, modelID string) *ElevenLabs {
	if modelID == "" {
		modelID = "eleven_multilingual_v2"
	}
	return &ElevenLabs{
		APIKey:  apiKey,
		VoiceID: voiceID,
		ModelID: modelID,
		BaseURL: elevenBaseURL,
		Client:  http.DefaultClient,
	}
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text, _ string) ([]byte, error) {
	if e.APIKey == "" || strings.TrimSpace(e.VoiceID) == "" {
		return nil, ErrUnavailable
	}
	url := fmt.Sprintf("%s/v1/text-to-speech/%s/stream?output_format=mp3_44100_128", strings.TrimRight(e.BaseURL, "/"), e.VoiceID)
	payload := map[string]any{
		"text":     text,
		"model_id": e.ModelID,
		"voice_settings": map[string]any{
			"stability":         0.5,
			"similarity_boost":  0.7,
			"style":             0.2,
			"use_speaker_boost": true,
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("tts request build failed: %w", err)
	}
	req.Header.Set("xi-api-key", e.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bb, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("elevenlabs error %d: %s", resp.StatusCode, strings.TrimSpace(string(bb)))
	}
	return io.ReadAll(resp.Body)
}
