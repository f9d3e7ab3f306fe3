package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAITranscriber submits audio to Whisper and asks for plain text.
type OpenAITranscriber struct {
	client *openai.Client
	model  string
}

func NewOpenAITranscriber(client *openai.Client, model string) *OpenAITranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAITranscriber{client: client, model: model}
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	tr, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		Reader:   bytes.NewReader(audio),
		FilePath: filename,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return tr.Text, nil
}

// OpenAISpeech synthesizes MP3 with the OpenAI TTS endpoint. The model
// detects the language itself.
type OpenAISpeech struct {
	client *openai.Client
	model  string
	voice  string
}

func NewOpenAISpeech(client *openai.Client, model, voice string) *OpenAISpeech {
	if model == "" {
		model = string(openai.TTSModel1)
	}
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	return &OpenAISpeech{client: client, model: model, voice: voice}
}

func (s *OpenAISpeech) Synthesize(ctx context.Context, text, _ string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech: %w", err)
	}
	defer resp.Close()
	return io.ReadAll(resp)
}
