package downloader

import "github.com/iamtgiri/YT-Playlist-Downloader/internal/model"

// FormatSelector maps the requested kind and quality preset to a yt-dlp
// format expression.
func FormatSelector(kind model.OutputKind, q model.Quality) string {
	if kind == model.KindAudio {
		return "bestaudio/best"
	}
	switch q {
	case model.Quality1080:
		return "bestvideo[height<=1080]+bestaudio/best"
	case model.Quality720:
		return "bestvideo[height<=720]+bestaudio/best"
	case model.Quality480:
		return "bestvideo[height<=480]+bestaudio/best"
	default:
		return "bestvideo+bestaudio/best"
	}
}
