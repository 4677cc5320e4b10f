package tagger

import (
	"testing"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/model"
)

func TestParseTagJSON(t *testing.T) {
	cases := []struct {
		name    string
		reply   string
		want    TagSet
		wantErr bool
	}{
		{
			name:  "bare object",
			reply: `{"title":"Song","artist":"Band","album":"LP","track":"3","year":"2021","genre":"Rock","comment":"","cover_url":""}`,
			want:  TagSet{Title: "Song", Artist: "Band", Album: "LP", Track: "3", Year: "2021", Genre: "Rock"},
		},
		{
			name:  "fenced object",
			reply: "```json\n{\"title\":\"Song\",\"artist\":\"Band\"}\n```",
			want:  TagSet{Title: "Song", Artist: "Band"},
		},
		{
			name:  "surrounding prose",
			reply: "Here are the tags:\n{\"title\":\"Song\"}\nHope that helps!",
			want:  TagSet{Title: "Song"},
		},
		{
			name:    "no json",
			reply:   "sorry, I cannot do that",
			wantErr: true,
		},
		{
			name:    "empty",
			reply:   "",
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTagJSON(tc.reply)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseTagJSON(%q) = %+v, want error", tc.reply, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTagJSON(%q) error: %v", tc.reply, err)
			}
			if got != tc.want {
				t.Errorf("ParseTagJSON(%q) = %+v, want %+v", tc.reply, got, tc.want)
			}
		})
	}
}

func TestFallbackTags(t *testing.T) {
	meta := model.DownloadedMedia{
		Title:        "Never Gonna Give You Up",
		Uploader:     "Rick Astley",
		UploadDate:   "20091025",
		ThumbnailURL: "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
		URL:          "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}
	got := FallbackTags(meta, "/out/Never Gonna Give You Up.mp3")
	if got.Title != "Never Gonna Give You Up" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Artist != "Rick Astley" {
		t.Errorf("Artist = %q", got.Artist)
	}
	if got.Year != "2009" {
		t.Errorf("Year = %q, want 2009", got.Year)
	}
	if got.CoverURL != meta.ThumbnailURL {
		t.Errorf("CoverURL = %q", got.CoverURL)
	}
	if got.Comment != meta.URL {
		t.Errorf("Comment = %q", got.Comment)
	}
}

func TestFallbackTagsTitleFromFilename(t *testing.T) {
	got := FallbackTags(model.DownloadedMedia{}, "/out/some_track.mp3")
	if got.Title != "some_track" {
		t.Errorf("Title = %q, want some_track", got.Title)
	}
	if got.Year != "" {
		t.Errorf("Year = %q, want empty", got.Year)
	}
}
