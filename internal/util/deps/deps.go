package deps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/lrstanley/go-ytdlp"
)

// ErrMissing marks a required external binary that could not be found.
var ErrMissing = errors.New("missing dependency")

// FindDownloader returns the path to yt-dlp or youtube-dl.
// If customPath is non-empty, it tries that path or looks it up in PATH.
func FindDownloader(customPath string) (string, error) {
	if customPath != "" {
		if _, err := os.Stat(customPath); err == nil {
			return customPath, nil
		}
		if p, err := exec.LookPath(customPath); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("%w: could not find downloader at %q", ErrMissing, customPath)
	}
	if p, err := exec.LookPath("yt-dlp"); err == nil {
		return p, nil
	}
	if p, err := exec.LookPath("youtube-dl"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w: could not find yt-dlp or youtube-dl in PATH; run 'ytpl doctor --install' or install yt-dlp", ErrMissing)
}

// FindFFmpeg returns the path to the ffmpeg binary in PATH.
func FindFFmpeg() (string, error) {
	if p, err := exec.LookPath("ffmpeg"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w: could not find ffmpeg in PATH; run 'ytpl doctor --install' or install ffmpeg", ErrMissing)
}

// Install downloads managed copies of yt-dlp and ffmpeg into the go-ytdlp
// cache directory and returns the resolved yt-dlp path. Also used to update
// an already-installed managed copy.
func Install(ctx context.Context) (string, error) {
	res, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("install yt-dlp: %w", err)
	}
	if _, err := ytdlp.InstallFFmpeg(ctx, nil); err != nil {
		return "", fmt.Errorf("install ffmpeg: %w", err)
	}
	return res.Executable, nil
}
