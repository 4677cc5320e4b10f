// Package model defines the core data types shared across the pipeline.
package model

import "time"

// OutputKind selects what the pipeline produces for each entry.
type OutputKind string

const (
	KindVideo OutputKind = "video" // MP4 container
	KindAudio OutputKind = "audio" // MP3 file
)

// Ext returns the output file extension for the kind, including the dot.
func (k OutputKind) Ext() string {
	if k == KindAudio {
		return ".mp3"
	}
	return ".mp4"
}

// Quality is a named stream-selection preset for video downloads.
type Quality string

const (
	QualityBest Quality = "best"
	Quality1080 Quality = "1080p"
	Quality720  Quality = "720p"
	Quality480  Quality = "480p"
)

// Options holds user-configurable runtime options as parsed from flags.
type Options struct {
	OutDir   string
	Kind     OutputKind
	Quality  Quality
	Items    string // Playlist entry selector, e.g. "1-3,7". Empty = all.
	Jobs     int    // Max concurrent downloads.
	KeepTemp bool
	Continue bool // Resume partial downloads.
	DLBinary string
	Verbose  bool
	NoUI     bool
	NoTag    bool // Skip the tagging step entirely.
}

// Entry is one downloadable item, either a single video or a playlist member.
type Entry struct {
	Index    int // 1-based position within the playlist; 1 for singles.
	ID       string
	Title    string
	URL      string
	Uploader string
	Duration float64 // Seconds; 0 if unknown.
}

// PlaylistInfo is the result of resolving a URL.
type PlaylistInfo struct {
	Title      string
	Uploader   string
	IsPlaylist bool
	Entries    []Entry
}

// DownloadedMedia describes a file fetched by the downloader, with the
// metadata needed for naming and tagging.
type DownloadedMedia struct {
	InputPath     string // Empty for metadata-only fetches.
	ThumbnailPath string // Local thumbnail written by yt-dlp, if any.
	ID            string
	Title         string
	Uploader      string
	Description   string
	UploadDate    string // YYYYMMDD as reported by yt-dlp.
	ThumbnailURL  string
	DurationSec   float64
	URL           string
}

// OutputFile captures the final result for one entry.
type OutputFile struct {
	Path   string
	Bytes  int64
	Kind   OutputKind
	Tagged bool
}

// HistoryRecord is one line of the download history log.
type HistoryRecord struct {
	Timestamp time.Time  `json:"ts"`
	URL       string     `json:"url"`
	VideoID   string     `json:"id"`
	Kind      OutputKind `json:"kind"`
	Quality   Quality    `json:"quality,omitempty"`
	Output    string     `json:"output,omitempty"`
	Status    string     `json:"status"` // "ok" or "error"
	Error     string     `json:"error,omitempty"`
}
