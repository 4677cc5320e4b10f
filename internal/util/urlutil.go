package util

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateYouTubeURL parses a raw URL string and checks it targets YouTube.
// Bare inputs without a scheme are retried with https:// prepended.
func ValidateYouTubeURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err == nil && (u.Scheme == "" || u.Host == "") {
		if u2, e2 := url.Parse("https://" + raw); e2 == nil {
			u = u2
		}
	}
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q", raw)
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")

	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be":
		return u, nil
	default:
		return nil, fmt.Errorf(
			"unsupported URL %q: only YouTube is supported (youtube.com, youtu.be, music.youtube.com)", raw)
	}
}

// IsPlaylistURL reports whether the URL carries a playlist reference.
func IsPlaylistURL(u *url.URL) bool {
	if u == nil {
		return false
	}
	if strings.HasPrefix(u.Path, "/playlist") {
		return true
	}
	return u.Query().Get("list") != ""
}

// WatchURL builds a canonical watch URL from a bare video ID.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
