package downloader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/model"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/util"
)

// stubRunner replays canned stdout per invocation and records specs.
type stubRunner struct {
	outputs []string
	specs   []util.CmdSpec
	// onDownload creates fake files when the download argv is seen.
	onDownload func(spec util.CmdSpec)
}

func (s *stubRunner) Run(_ context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	s.specs = append(s.specs, spec)
	if s.onDownload != nil && !contains(spec.Args, "-J") && !contains(spec.Args, "--dump-json") {
		s.onDownload(spec)
		return util.CmdResult{}, nil
	}
	var out string
	if len(s.outputs) > 0 {
		out = s.outputs[0]
		s.outputs = s.outputs[1:]
	}
	return util.CmdResult{Stdout: []byte(out)}, nil
}

func contains(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func TestFetchInfoSingleVideo(t *testing.T) {
	r := &stubRunner{outputs: []string{
		`{"id":"abc123","title":"A Song","uploader":"Someone","duration":212,"webpage_url":"https://www.youtube.com/watch?v=abc123"}`,
	}}
	info, err := FetchInfo(context.Background(), "https://youtu.be/abc123", Options{
		DownloaderPath: "yt-dlp",
		Runner:         r,
	})
	if err != nil {
		t.Fatalf("FetchInfo: %v", err)
	}
	if info.IsPlaylist {
		t.Error("expected single video, got playlist")
	}
	if len(info.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(info.Entries))
	}
	e := info.Entries[0]
	if e.ID != "abc123" || e.Title != "A Song" || e.Index != 1 {
		t.Errorf("unexpected entry: %+v", e)
	}
	if !contains(r.specs[0].Args, "--flat-playlist") {
		t.Errorf("missing --flat-playlist in %v", r.specs[0].Args)
	}
}

func TestFetchInfoPlaylist(t *testing.T) {
	r := &stubRunner{outputs: []string{
		`{"_type":"playlist","id":"PL1","title":"Mix","uploader":"Chan","playlist_count":2,` +
			`"entries":[{"id":"v1","title":"One","url":"v1","duration":10},{"id":"v2","title":"Two","url":"v2","duration":20}]}`,
	}}
	info, err := FetchInfo(context.Background(), "https://www.youtube.com/playlist?list=PL1", Options{
		DownloaderPath: "yt-dlp",
		Runner:         r,
	})
	if err != nil {
		t.Fatalf("FetchInfo: %v", err)
	}
	if !info.IsPlaylist {
		t.Error("expected playlist")
	}
	if len(info.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(info.Entries))
	}
	// Flat entries carry bare IDs; URLs must be normalized.
	for i, e := range info.Entries {
		if !strings.HasPrefix(e.URL, "https://www.youtube.com/watch?v=") {
			t.Errorf("entry %d URL not normalized: %q", i, e.URL)
		}
		if e.Index != i+1 {
			t.Errorf("entry %d index = %d", i, e.Index)
		}
	}
}

func TestFetchInfoRejectsInvalidURL(t *testing.T) {
	r := &stubRunner{}
	_, err := FetchInfo(context.Background(), "https://example.com/video", Options{
		DownloaderPath: "yt-dlp",
		Runner:         r,
	})
	if err == nil {
		t.Fatal("expected error for non-YouTube URL")
	}
	if len(r.specs) != 0 {
		t.Error("yt-dlp should not run for an invalid URL")
	}
}

func TestDownloadAudio(t *testing.T) {
	meta := `{"id":"abc123","title":"A Song","uploader":"Someone","duration":212,"thumbnail":"https://i.ytimg.com/vi/abc123/hq720.jpg","upload_date":"20240101"}`
	r := &stubRunner{
		outputs: []string{meta},
		onDownload: func(spec util.CmdSpec) {
			for _, name := range []string{"abc123.webm", "abc123.jpg"} {
				if err := os.WriteFile(filepath.Join(spec.Dir, name), []byte("x"), 0o644); err != nil {
					t.Fatal(err)
				}
			}
		},
	}
	dm, workdir, err := Download(context.Background(), model.Entry{
		Index: 1, ID: "abc123", URL: "https://www.youtube.com/watch?v=abc123",
	}, Options{
		DownloaderPath: "yt-dlp",
		Kind:           model.KindAudio,
		Runner:         r,
	})
	defer os.RemoveAll(workdir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Base(dm.InputPath) != "abc123.webm" {
		t.Errorf("InputPath = %q", dm.InputPath)
	}
	if dm.ThumbnailPath == "" {
		t.Error("expected thumbnail to be found")
	}
	if dm.Title != "A Song" || dm.UploadDate != "20240101" {
		t.Errorf("metadata not propagated: %+v", dm)
	}

	dlSpec := r.specs[len(r.specs)-1]
	if !contains(dlSpec.Args, "bestaudio/best") {
		t.Errorf("audio format selector missing: %v", dlSpec.Args)
	}
	if !contains(dlSpec.Args, "--write-thumbnail") {
		t.Errorf("--write-thumbnail missing: %v", dlSpec.Args)
	}
}

func TestDownloadVideoArgs(t *testing.T) {
	meta := `{"id":"v9","title":"Clip","duration":30}`
	r := &stubRunner{
		outputs: []string{meta},
		onDownload: func(spec util.CmdSpec) {
			if err := os.WriteFile(filepath.Join(spec.Dir, "v9.mp4"), []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
		},
	}
	dm, workdir, err := Download(context.Background(), model.Entry{Index: 1, ID: "v9", URL: "https://youtu.be/v9"}, Options{
		DownloaderPath: "yt-dlp",
		Kind:           model.KindVideo,
		Quality:        model.Quality720,
		Continue:       true,
		Runner:         r,
	})
	defer os.RemoveAll(workdir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Base(dm.InputPath) != "v9.mp4" {
		t.Errorf("InputPath = %q", dm.InputPath)
	}
	dlSpec := r.specs[len(r.specs)-1]
	if !contains(dlSpec.Args, "bestvideo[height<=720]+bestaudio/best") {
		t.Errorf("720p selector missing: %v", dlSpec.Args)
	}
	if !contains(dlSpec.Args, "--merge-output-format") {
		t.Errorf("merge format missing: %v", dlSpec.Args)
	}
	if !contains(dlSpec.Args, "--continue") {
		t.Errorf("--continue missing: %v", dlSpec.Args)
	}
}

func TestDownloadReusesWorkdir(t *testing.T) {
	workdir := filepath.Join(t.TempDir(), "v9")
	meta := `{"id":"v9","title":"Clip","duration":30}`
	r := &stubRunner{
		outputs: []string{meta},
		onDownload: func(spec util.CmdSpec) {
			if err := os.WriteFile(filepath.Join(spec.Dir, "v9.mp4"), []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
		},
	}
	_, got, err := Download(context.Background(), model.Entry{Index: 1, ID: "v9", URL: "https://youtu.be/v9"}, Options{
		DownloaderPath: "yt-dlp",
		Kind:           model.KindVideo,
		Continue:       true,
		Workdir:        workdir,
		Runner:         r,
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got != workdir {
		t.Errorf("workdir = %q, want %q", got, workdir)
	}
	if dlSpec := r.specs[len(r.specs)-1]; dlSpec.Dir != workdir {
		t.Errorf("yt-dlp ran in %q, want %q", dlSpec.Dir, workdir)
	}
}

func TestSelectDownloadedFile(t *testing.T) {
	tests := []struct {
		name      string
		files     []string
		videoID   string
		wantFile  string
		wantError bool
	}{
		{
			name:     "prefers mp4 over webm",
			files:    []string{"abc.webm", "abc.mp4"},
			videoID:  "abc",
			wantFile: "abc.mp4",
		},
		{
			name:     "m4a over webm",
			files:    []string{"abc.webm", "abc.m4a"},
			videoID:  "abc",
			wantFile: "abc.m4a",
		},
		{
			name:     "ignores thumbnails and partials",
			files:    []string{"abc.jpg", "abc.part", "abc.webm"},
			videoID:  "abc",
			wantFile: "abc.webm",
		},
		{
			name:     "fallback to any file when ID mismatch",
			files:    []string{"other.mp4"},
			videoID:  "abc",
			wantFile: "other.mp4",
		},
		{
			name:      "error when nothing usable",
			files:     []string{"abc.jpg"},
			videoID:   "abc",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			got, err := SelectDownloadedFile(dir, tt.videoID)
			if tt.wantError {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectDownloadedFile: %v", err)
			}
			if filepath.Base(got) != tt.wantFile {
				t.Errorf("got %q, want %q", filepath.Base(got), tt.wantFile)
			}
		})
	}
}

func TestFormatSelector(t *testing.T) {
	tests := []struct {
		kind model.OutputKind
		q    model.Quality
		want string
	}{
		{model.KindAudio, model.QualityBest, "bestaudio/best"},
		{model.KindVideo, model.QualityBest, "bestvideo+bestaudio/best"},
		{model.KindVideo, model.Quality1080, "bestvideo[height<=1080]+bestaudio/best"},
		{model.KindVideo, model.Quality480, "bestvideo[height<=480]+bestaudio/best"},
	}
	for _, tt := range tests {
		if got := FormatSelector(tt.kind, tt.q); got != tt.want {
			t.Errorf("FormatSelector(%s, %s) = %q, want %q", tt.kind, tt.q, got, tt.want)
		}
	}
}
