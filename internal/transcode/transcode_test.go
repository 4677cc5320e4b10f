package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/model"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/util"
)

// fakeFFmpeg writes a file of the requested size at the last argument.
type fakeFFmpeg struct {
	specs  []util.CmdSpec
	size   int64
	failOn string // substring of args; matching invocations fail
	wrote  []string
}

func (f *fakeFFmpeg) Run(_ context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	f.specs = append(f.specs, spec)
	joined := strings.Join(spec.Args, " ")
	if f.failOn != "" && strings.Contains(joined, f.failOn) {
		return util.CmdResult{Code: 1}, errors.New("exit status 1")
	}
	out := spec.Args[len(spec.Args)-1]
	size := f.size
	if size <= 0 {
		size = 64
	}
	if err := os.WriteFile(out, make([]byte, size), 0o644); err != nil {
		return util.CmdResult{}, err
	}
	f.wrote = append(f.wrote, out)
	return util.CmdResult{}, nil
}

func TestConvertAudio(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "abc.webm")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ff := &fakeFFmpeg{}
	out, err := Convert(context.Background(), model.DownloadedMedia{InputPath: input}, model.KindAudio, Options{
		FFmpegPath: "ffmpeg",
		OutputPath: filepath.Join(dir, "out", "song.mp3"),
		Runner:     ff,
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if out.Kind != model.KindAudio || out.Bytes == 0 {
		t.Errorf("unexpected output: %+v", out)
	}
	args := strings.Join(ff.specs[0].Args, " ")
	if !strings.Contains(args, "libmp3lame") || !strings.Contains(args, "192k") {
		t.Errorf("mp3 args missing: %s", args)
	}
}

func TestConvertVideoRenamesMP4(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "abc.mp4")
	if err := os.WriteFile(input, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	ff := &fakeFFmpeg{}
	out, err := Convert(context.Background(), model.DownloadedMedia{InputPath: input}, model.KindVideo, Options{
		FFmpegPath: "ffmpeg",
		OutputPath: filepath.Join(dir, "final.mp4"),
		Runner:     ff,
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(ff.specs) != 0 {
		t.Errorf("expected no ffmpeg run for mp4 input, got %d", len(ff.specs))
	}
	if out.Bytes != int64(len("video")) {
		t.Errorf("Bytes = %d", out.Bytes)
	}
}

func TestConvertVideoRemuxesOtherContainers(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "abc.mkv")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ff := &fakeFFmpeg{}
	_, err := Convert(context.Background(), model.DownloadedMedia{InputPath: input}, model.KindVideo, Options{
		FFmpegPath: "ffmpeg",
		OutputPath: filepath.Join(dir, "final.mp4"),
		Runner:     ff,
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(ff.specs) != 1 {
		t.Fatalf("expected one ffmpeg run, got %d", len(ff.specs))
	}
	args := strings.Join(ff.specs[0].Args, " ")
	if !strings.Contains(args, "-c copy") {
		t.Errorf("expected stream copy, got %s", args)
	}
}

func TestConvertVideoFallsBackToReencode(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "abc.webm")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ff := &fakeFFmpeg{failOn: "-c copy"}
	_, err := Convert(context.Background(), model.DownloadedMedia{InputPath: input}, model.KindVideo, Options{
		FFmpegPath: "ffmpeg",
		OutputPath: filepath.Join(dir, "final.mp4"),
		Runner:     ff,
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(ff.specs) != 2 {
		t.Fatalf("expected remux then re-encode, got %d runs", len(ff.specs))
	}
	args := strings.Join(ff.specs[1].Args, " ")
	if !strings.Contains(args, "libx264") {
		t.Errorf("expected re-encode args, got %s", args)
	}
}

func TestConvertRemovesPartialOnFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "abc.webm")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ff := &fakeFFmpeg{failOn: "libmp3lame"}
	outPath := filepath.Join(dir, "song.mp3")
	_, err := Convert(context.Background(), model.DownloadedMedia{InputPath: input}, model.KindAudio, Options{
		FFmpegPath: "ffmpeg",
		OutputPath: outPath,
		Runner:     ff,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, serr := os.Stat(outPath); !os.IsNotExist(serr) {
		t.Error("partial output not removed")
	}
}

func TestConvertRequiresPaths(t *testing.T) {
	_, err := Convert(context.Background(), model.DownloadedMedia{}, model.KindAudio, Options{})
	if err == nil {
		t.Fatal("expected error for missing ffmpeg path")
	}
}
