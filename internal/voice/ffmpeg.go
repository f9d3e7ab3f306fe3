package voice

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// FFmpeg transcodes through temporary files that are removed before
// ToVoiceNote returns.
type FFmpeg struct {
	Path    string
	TempDir string
}

func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path}
}

// Available reports an error when the binary cannot be found.
func (f *FFmpeg) Available() error {
	_, err := exec.LookPath(f.Path)
	return err
}

func (f *FFmpeg) ToVoiceNote(ctx context.Context, mp3 []byte) ([]byte, error) {
	inPath, err := f.tempFile("tts-*.mp3", mp3)
	if err != nil {
		return nil, err
	}
	defer os.Remove(inPath)

	outPath, err := f.tempFile("tts-*.ogg", nil)
	if err != nil {
		return nil, err
	}
	defer os.Remove(outPath)

	// ffmpeg -i in.mp3 -c:a libopus -b:a 48k -ac 1 -ar 48000 out.ogg
	cmd := exec.CommandContext(ctx, f.Path,
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", inPath,
		"-c:a", "libopus", "-b:a", "48k", "-ac", "1", "-ar", "48000",
		"-f", "ogg", outPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg conversion failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	ogg, err := os.ReadFile(outPath)
	if err != nil {
		return nil, err
	}
	if len(ogg) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output")
	}
	return ogg, nil
}

func (f *FFmpeg) tempFile(pattern string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(f.TempDir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if len(data) > 0 {
		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			os.Remove(name)
			return "", fmt.Errorf("write temp file: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}
