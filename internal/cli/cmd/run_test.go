package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/model"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/pipeline"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/util/deps"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		kind    model.OutputKind
		quality model.Quality
		wantErr bool
	}{
		{in: "best", kind: model.KindVideo, quality: model.QualityBest},
		{in: "mp4", kind: model.KindVideo, quality: model.QualityBest},
		{in: "1080p", kind: model.KindVideo, quality: model.Quality1080},
		{in: "720", kind: model.KindVideo, quality: model.Quality720},
		{in: "480p", kind: model.KindVideo, quality: model.Quality480},
		{in: "MP3", kind: model.KindAudio},
		{in: "audio", kind: model.KindAudio},
		{in: "flac", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		kind, quality, err := parseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseFormat(%q) = %v/%v, want error", tc.in, kind, quality)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseFormat(%q) error: %v", tc.in, err)
			continue
		}
		if kind != tc.kind || quality != tc.quality {
			t.Errorf("parseFormat(%q) = %v/%v, want %v/%v", tc.in, kind, quality, tc.kind, tc.quality)
		}
	}
}

func TestSelectEntries(t *testing.T) {
	info := model.PlaylistInfo{
		IsPlaylist: true,
		Entries: []model.Entry{
			{Index: 1, ID: "a"},
			{Index: 2, ID: "b"},
			{Index: 3, ID: "c"},
			{Index: 4, ID: "d"},
		},
	}

	got, err := selectEntries(info, "1-2,4")
	if err != nil {
		t.Fatalf("selectEntries: %v", err)
	}
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "d" {
		t.Errorf("selectEntries = %+v", got)
	}

	all, err := selectEntries(info, "")
	if err != nil || len(all) != 4 {
		t.Errorf("empty selector: got %d entries, err %v", len(all), err)
	}

	if _, err := selectEntries(info, "9"); err == nil {
		t.Error("out-of-range selector accepted")
	}
}

func TestRunExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: yt-dlp exit 1", pipeline.ErrDownload), ExitDownloadError},
		{fmt.Errorf("%w: ffmpeg exit 1", pipeline.ErrConvert), ExitTranscodeError},
		{fmt.Errorf("check: %w", deps.ErrMissing), ExitMissingDep},
		{errors.New("interrupted"), ExitCLIError},
	}
	for _, tc := range cases {
		if got := runExitCode(tc.err); got != tc.want {
			t.Errorf("runExitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
