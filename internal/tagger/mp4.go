package tagger

import (
	"fmt"

	mp4tag "github.com/zhaarey/go-mp4tag"
)

// WriteMP4 writes container atoms on an MP4 file. Videos get deterministic
// tags straight from yt-dlp metadata; no generator is involved.
func WriteMP4(path string, tags TagSet) error {
	t := &mp4tag.MP4Tags{
		Title:  tags.Title,
		Artist: tags.Artist,
		Album:  tags.Album,
		Custom: make(map[string]string),
	}
	if tags.Year != "" {
		t.Date = tags.Year
	}
	if tags.Comment != "" {
		t.Custom["COMMENT"] = tags.Comment
	}

	mp4, err := mp4tag.Open(path)
	if err != nil {
		return fmt.Errorf("tagger: open mp4: %w", err)
	}
	defer mp4.Close()
	if err := mp4.Write(t, []string{}); err != nil {
		return fmt.Errorf("tagger: write mp4 tags: %w", err)
	}
	return nil
}
