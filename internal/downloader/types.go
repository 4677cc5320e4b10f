package downloader

import "encoding/json"

// ytdlpInfo mirrors fields from yt-dlp -J output that we care about.
// A playlist document carries Type "playlist" and Entries; a single video
// carries its own metadata at the top level.
type ytdlpInfo struct {
	Type        string       `json:"_type"`
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Uploader    string       `json:"uploader"`
	Channel     string       `json:"channel"`
	Duration    float64      `json:"duration"`
	Description string       `json:"description"`
	UploadDate  string       `json:"upload_date"`
	Thumbnail   string       `json:"thumbnail"`
	WebpageURL  string       `json:"webpage_url"`
	PlaylistN   int          `json:"playlist_count"`
	Entries     []ytdlpEntry `json:"entries"`
}

// ytdlpEntry is one element of a --flat-playlist dump. The url field holds a
// bare video ID for flat extractions.
type ytdlpEntry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Uploader string  `json:"uploader"`
	Duration float64 `json:"duration"`
}

func parseInfo(data []byte) (ytdlpInfo, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return ytdlpInfo{}, err
	}
	return info, nil
}
