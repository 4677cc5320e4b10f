// Package transcode wraps the external ffmpeg binary to produce the final
// MP3 or MP4 output from a downloaded media file.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/model"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/progress"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/util"
)

// Options control ffmpeg execution.
type Options struct {
	FFmpegPath string
	Verbose    bool
	OutputPath string // Full path of desired output file (including extension)

	Reporter progress.Reporter // Optional
	JobID    string
	Runner   util.CmdRunner
}

func (o Options) runner() util.CmdRunner {
	if o.Runner != nil {
		return o.Runner
	}
	return util.NewDefaultRunner()
}

// Convert produces the requested output kind from the downloaded input.
// Audio goes through an MP3 extraction; video is remuxed into MP4 (stream
// copy first, re-encode as fallback). On success the output file exists and
// is non-empty.
func Convert(ctx context.Context, in model.DownloadedMedia, kind model.OutputKind, opts Options) (model.OutputFile, error) {
	if opts.FFmpegPath == "" {
		return model.OutputFile{}, errors.New("ffmpeg path is required")
	}
	if opts.OutputPath == "" {
		return model.OutputFile{}, errors.New("output path is required")
	}
	if in.InputPath == "" {
		return model.OutputFile{}, errors.New("input path is required")
	}
	if err := util.EnsureDir(filepath.Dir(opts.OutputPath)); err != nil {
		return model.OutputFile{}, fmt.Errorf("ensure output dir: %w", err)
	}

	opts.report(progress.Update{
		JobID:   opts.JobID,
		Stage:   progress.StageConverting,
		Percent: -1,
		Message: "Converting",
	})

	var err error
	if kind == model.KindAudio {
		err = opts.run(ctx, BuildAudioArgs(in.InputPath, opts.OutputPath))
	} else {
		err = convertVideo(ctx, in, opts)
	}
	if err != nil {
		_ = util.RemoveIfExists(opts.OutputPath)
		return model.OutputFile{}, fmt.Errorf("ffmpeg failed: %w", err)
	}

	fi, statErr := os.Stat(opts.OutputPath)
	if statErr != nil {
		return model.OutputFile{}, fmt.Errorf("stat output: %w", statErr)
	}
	if fi.Size() == 0 {
		_ = util.RemoveIfExists(opts.OutputPath)
		return model.OutputFile{}, errors.New("transcode produced an empty file")
	}

	return model.OutputFile{
		Path:  opts.OutputPath,
		Bytes: fi.Size(),
		Kind:  kind,
	}, nil
}

func convertVideo(ctx context.Context, in model.DownloadedMedia, opts Options) error {
	// yt-dlp already merged into mp4 in the common case; renaming beats a
	// full pass through ffmpeg.
	if strings.EqualFold(filepath.Ext(in.InputPath), ".mp4") {
		if err := os.Rename(in.InputPath, opts.OutputPath); err == nil {
			return nil
		}
		// Rename across filesystems fails; fall through to a remux.
	}
	if err := opts.run(ctx, BuildRemuxArgs(in.InputPath, opts.OutputPath)); err == nil {
		return nil
	}
	// Stream copy is rejected for containers mp4 cannot hold; re-encode.
	_ = util.RemoveIfExists(opts.OutputPath)
	return opts.run(ctx, BuildReencodeArgs(in.InputPath, opts.OutputPath))
}

// BuildAudioArgs constructs ffmpeg arguments for MP3 extraction at 192 kbps.
func BuildAudioArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", "192k",
		"-id3v2_version", "3",
		outputPath,
	}
}

// BuildRemuxArgs constructs ffmpeg arguments for a lossless remux into MP4.
func BuildRemuxArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-c", "copy",
		"-movflags", "+faststart",
		outputPath,
	}
}

// BuildReencodeArgs constructs ffmpeg arguments for a full re-encode into MP4.
func BuildReencodeArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
		outputPath,
	}
}

func (o Options) run(ctx context.Context, args []string) error {
	spec := util.CmdSpec{
		Path:    o.FFmpegPath,
		Args:    args,
		Verbose: o.Verbose,
	}
	if o.Reporter != nil {
		rep, jobID := o.Reporter, o.JobID
		spec.StderrLine = func(line string) {
			rep.Log(progress.Log{JobID: jobID, Stream: progress.StreamStderr, Line: line})
		}
	}
	_, err := o.runner().Run(ctx, spec)
	return err
}

func (o Options) report(u progress.Update) {
	if o.Reporter != nil {
		o.Reporter.Update(u)
	}
}
