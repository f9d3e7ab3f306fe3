// Package voice turns Telegram voice notes into text and answers into voice
// notes.
package voice

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"smartpro-bot/internal/sanitize"
)

// ErrUnavailable is returned by Synthesize when no synthesizer or transcoder
// is configured.
var ErrUnavailable = errors.New("voice: synthesis unavailable")

const (
	DefaultMaxChars = 1000
	defaultTimeout  = 30 * time.Second
)

// FileResolver resolves a platform file id to a download URL.
type FileResolver interface {
	GetFileDirectURL(fileID string) (string, error)
}

// Transcriber converts audio bytes to plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Synthesizer returns MP3 speech for text.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// Transcoder converts MP3 to an OGG/Opus voice note.
type Transcoder interface {
	ToVoiceNote(ctx context.Context, mp3 []byte) ([]byte, error)
}

// Pipeline wires the voice capabilities. Any of them may be absent.
type Pipeline struct {
	files       FileResolver
	downloader  *Downloader
	transcriber Transcriber
	synthesizer Synthesizer
	transcoder  Transcoder
	sttTimeout  time.Duration
	ttsTimeout  time.Duration
	maxChars    int
	logger      *zap.Logger
}

type Option func(*Pipeline)

func WithTranscriber(t Transcriber) Option { return func(p *Pipeline) { p.transcriber = t } }
func WithSynthesizer(s Synthesizer) Option { return func(p *Pipeline) { p.synthesizer = s } }
func WithTranscoder(t Transcoder) Option   { return func(p *Pipeline) { p.transcoder = t } }
func WithDownloader(d *Downloader) Option  { return func(p *Pipeline) { p.downloader = d } }

func WithTimeouts(stt, tts time.Duration) Option {
	return func(p *Pipeline) {
		if stt > 0 {
			p.sttTimeout = stt
		}
		if tts > 0 {
			p.ttsTimeout = tts
		}
	}
}

// WithMaxChars caps the text sent to the synthesizer.
func WithMaxChars(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxChars = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewPipeline(files FileResolver, opts ...Option) *Pipeline {
	p := &Pipeline{
		files:      files,
		downloader: NewDownloader(0, 0),
		sttTimeout: defaultTimeout,
		ttsTimeout: defaultTimeout,
		maxChars:   DefaultMaxChars,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CanTranscribe reports whether voice notes can be turned into text.
func (p *Pipeline) CanTranscribe() bool {
	return p.transcriber != nil && p.files != nil
}

// CanSynthesize reports whether answers can be spoken.
func (p *Pipeline) CanSynthesize() bool {
	return p.synthesizer != nil && p.transcoder != nil
}

// Transcribe returns the trimmed transcript of a voice note, or "" when no
// transcript is available.
func (p *Pipeline) Transcribe(ctx context.Context, fileID string) string {
	if !p.CanTranscribe() {
		return ""
	}
	log := p.logger.With(zap.String("file_id", fileID))

	fileURL, err := p.files.GetFileDirectURL(fileID)
	if err != nil {
		log.Warn("resolve voice file failed", zap.Error(err))
		return ""
	}
	audio, err := p.downloader.Fetch(ctx, fileURL)
	if err != nil {
		log.Warn("download voice file failed", zap.Error(err))
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, p.sttTimeout)
	defer cancel()
	text, err := p.transcriber.Transcribe(ctx, audio, audioName(fileURL))
	if err != nil {
		log.Warn("transcription failed", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(text)
}

// Synthesize speaks text and returns an OGG/Opus voice note.
func (p *Pipeline) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if !p.CanSynthesize() {
		return nil, ErrUnavailable
	}
	text = sanitize.Truncate(strings.TrimSpace(text), p.maxChars)
	if text == "" {
		return nil, fmt.Errorf("voice: nothing to synthesize")
	}

	ctx, cancel := context.WithTimeout(ctx, p.ttsTimeout)
	defer cancel()
	mp3, err := p.synthesizer.Synthesize(ctx, text, lang)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	ogg, err := p.transcoder.ToVoiceNote(ctx, mp3)
	if err != nil {
		return nil, fmt.Errorf("transcode: %w", err)
	}
	return ogg, nil
}

// audioName is the file name of fileURL with .oga mapped to .ogg. URLs
// without an extension are voice notes.
func audioName(fileURL string) string {
	const fallback = "voice.ogg"
	u, err := url.Parse(fileURL)
	if err != nil {
		return fallback
	}
	name := path.Base(u.Path)
	if path.Ext(name) == "" || name == "." || name == "/" {
		return fallback
	}
	if strings.EqualFold(path.Ext(name), ".oga") {
		return strings.TrimSuffix(name, path.Ext(name)) + ".ogg"
	}
	return name
}
