// Package pipeline provides orchestration for the download workflow: resolve,
// download, convert, tag, record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/dirs"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/downloader"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/history"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/model"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/progress"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/tagger"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/transcode"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/util"
)

// Sentinel errors for mapping failures to exit codes.
var (
	ErrDownload = errors.New("download failed")
	ErrConvert  = errors.New("convert failed")
)

// Service orchestrates the download → convert → tag → record workflow.
type Service struct {
	dlPath     string
	ffmpegPath string
	opts       model.Options
	generator  tagger.Generator
	hist       *history.Log
	runner     util.CmdRunner
	reporter   progress.Reporter
	jobID      string
	workRoot   string
}

// Option configures a Service.
type Option func(*Service)

// WithDownloaderPath sets the downloader (yt-dlp/youtube-dl) binary path.
func WithDownloaderPath(p string) Option {
	return func(s *Service) {
		s.dlPath = p
	}
}

// WithFFmpegPath sets the ffmpeg binary path.
func WithFFmpegPath(p string) Option {
	return func(s *Service) {
		s.ffmpegPath = p
	}
}

// WithOptions sets the runtime options used for execution.
func WithOptions(o model.Options) Option {
	return func(s *Service) {
		s.opts = o
	}
}

// WithGenerator attaches a tag generator. When nil, files get fallback tags
// derived from yt-dlp metadata.
func WithGenerator(g tagger.Generator) Option {
	return func(s *Service) {
		s.generator = g
	}
}

// WithHistory attaches a history log. When nil, no records are written.
func WithHistory(h *history.Log) Option {
	return func(s *Service) {
		s.hist = h
	}
}

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithReporter attaches a progress reporter (used by TUI).
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) {
		s.reporter = rp
	}
}

// WithWorkRoot sets the base directory for resumable download workdirs.
// Defaults to a "resume" directory under the user cache dir.
func WithWorkRoot(dir string) Option {
	return func(s *Service) {
		s.workRoot = dir
	}
}

// WithJobID sets the job ID associated with reporter events.
func WithJobID(id string) Option {
	return func(s *Service) {
		s.jobID = id
	}
}

// NewService constructs a new Service with the provided options.
// It applies sensible defaults for missing components.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, o := range opts {
		o(s)
	}
	if s.runner == nil {
		s.runner = util.NewDefaultRunner()
	}
	return s
}

// ResolveInfo resolves a URL into playlist entries without downloading media.
func (s *Service) ResolveInfo(ctx context.Context, url string) (model.PlaylistInfo, error) {
	if s.dlPath == "" {
		return model.PlaylistInfo{}, errors.New("downloader path is required")
	}
	s.emitStage(progress.StageMetadata, 0, "Resolving URL")
	return downloader.FetchInfo(ctx, url, downloader.Options{
		DownloaderPath: s.dlPath,
		Verbose:        s.opts.Verbose,
		Runner:         s.runner,
	})
}

// Result returns the outcome of RunEntry.
type Result struct {
	Entry   model.Entry
	Media   model.DownloadedMedia
	Output  *model.OutputFile
	TempDir string
}

// RunEntry executes the full pipeline for a single entry.
// It never prints; when a Reporter is present, it emits progress and a final
// Result. Tagging failures are reported but never fail the entry.
func (s *Service) RunEntry(ctx context.Context, entry model.Entry) (Result, error) {
	res := Result{Entry: entry}

	if s.dlPath == "" {
		return res, errors.New("downloader path is required")
	}
	if s.ffmpegPath == "" {
		return res, errors.New("ffmpeg path is required")
	}
	if err := util.EnsureDir(s.opts.OutDir); err != nil {
		return res, fmt.Errorf("output dir: %w", err)
	}

	// Step 1: Download media into a temp workdir. With --continue the workdir
	// is stable per video so a rerun finds the partial files yt-dlp left.
	dm, tempDir, derr := downloader.Download(ctx, entry, downloader.Options{
		DownloaderPath: s.dlPath,
		Kind:           s.opts.Kind,
		Quality:        s.opts.Quality,
		Continue:       s.opts.Continue,
		Workdir:        s.resumeWorkdir(entry),
		Verbose:        s.opts.Verbose,
		Reporter:       s.reporter,
		JobID:          s.jobID,
		Runner:         s.runner,
	})
	completed := false
	defer func() {
		if s.opts.KeepTemp || tempDir == "" {
			return
		}
		if s.opts.Continue && !completed {
			// Keep partial files around for the next --continue run.
			return
		}
		_ = os.RemoveAll(tempDir)
	}()
	if s.opts.KeepTemp {
		res.TempDir = tempDir
	}
	if derr != nil {
		s.record(entry, dm, nil, derr)
		return res, fmt.Errorf("%w: %v", ErrDownload, derr)
	}
	res.Media = dm

	// Step 2: Convert into the output directory.
	outPath := s.outputPath(entry, dm)
	out, cerr := transcode.Convert(ctx, dm, s.opts.Kind, transcode.Options{
		FFmpegPath: s.ffmpegPath,
		Verbose:    s.opts.Verbose,
		OutputPath: outPath,
		Reporter:   s.reporter,
		JobID:      s.jobID,
		Runner:     s.runner,
	})
	if cerr != nil {
		// A cancelled job must not leave a partial file behind.
		if errors.Is(cerr, context.Canceled) || ctx.Err() != nil {
			_ = util.RemoveIfExists(outPath)
		}
		s.record(entry, dm, nil, cerr)
		return res, fmt.Errorf("%w: %v", ErrConvert, cerr)
	}

	// Step 3: Tag (best-effort).
	if !s.opts.NoTag {
		out.Tagged = s.tag(ctx, dm, out)
	}

	s.emitSaved(out)
	s.record(entry, dm, &out, nil)
	res.Output = &out
	completed = true
	return res, nil
}

// resumeWorkdir returns the stable per-video workdir used when resume is on,
// or empty for a throwaway temp dir.
func (s *Service) resumeWorkdir(entry model.Entry) string {
	if !s.opts.Continue {
		return ""
	}
	key := entry.ID
	if key == "" {
		key = util.SanitizeFilename(entry.URL)
	}
	root := s.workRoot
	if root == "" {
		cache, err := dirs.CacheDir()
		if err != nil {
			return ""
		}
		root = filepath.Join(cache, "resume")
	}
	return filepath.Join(root, key)
}

// outputPath derives the destination path from metadata, never colliding with
// an existing file.
func (s *Service) outputPath(entry model.Entry, dm model.DownloadedMedia) string {
	base := dm.Title
	if base == "" {
		base = entry.Title
	}
	if base == "" {
		base = dm.ID
	}
	name := util.SanitizeFilename(base) + s.opts.Kind.Ext()
	return util.UniquePath(filepath.Join(s.opts.OutDir, name))
}

// tag writes metadata onto the output file. Returns whether tags were written.
func (s *Service) tag(ctx context.Context, dm model.DownloadedMedia, out model.OutputFile) bool {
	s.emitStage(progress.StageTagging, 0, "Tagging")

	tags := tagger.FallbackTags(dm, out.Path)
	if s.generator != nil && s.opts.Kind == model.KindAudio {
		if generated, err := s.generator.Generate(ctx, dm); err == nil {
			tags = generated
			if tags.CoverURL == "" {
				tags.CoverURL = dm.ThumbnailURL
			}
		} else {
			s.logf("warning: tag generation failed, using fallback tags: %v", err)
		}
	}

	var err error
	switch s.opts.Kind {
	case model.KindAudio:
		err = tagger.WriteMP3(ctx, out.Path, tags, dm.ThumbnailPath)
	default:
		err = tagger.WriteMP4(out.Path, tags)
	}
	if err != nil {
		s.logf("warning: tagging failed: %v", err)
		return false
	}
	return true
}

// record appends a history line when a log is attached.
func (s *Service) record(entry model.Entry, dm model.DownloadedMedia, out *model.OutputFile, runErr error) {
	if s.hist == nil {
		return
	}
	rec := model.HistoryRecord{
		URL:     entry.URL,
		VideoID: entry.ID,
		Kind:    s.opts.Kind,
		Status:  "ok",
	}
	if dm.ID != "" {
		rec.VideoID = dm.ID
	}
	if s.opts.Kind == model.KindVideo {
		rec.Quality = s.opts.Quality
	}
	if out != nil {
		rec.Output = out.Path
	}
	if runErr != nil {
		rec.Status = "error"
		rec.Error = runErr.Error()
	}
	if err := s.hist.Append(rec); err != nil {
		s.logf("warning: failed to write history: %v", err)
	}
}

// emitSaved sends a final "saved" update and reporter result for TUI.
func (s *Service) emitSaved(out model.OutputFile) {
	if s.reporter == nil {
		return
	}
	name := filepath.Base(out.Path)
	size := util.HumanizeBytes(out.Bytes)
	s.reporter.Update(progress.Update{
		JobID:   s.jobID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("Saved: %s (%s)", name, size),
	})
	s.reporter.Result(progress.Result{
		JobID:      s.jobID,
		OutputPath: out.Path,
		Bytes:      out.Bytes,
		Tagged:     out.Tagged,
		Err:        nil,
	})
}

func (s *Service) emitStage(stage progress.Stage, percent float64, msg string) {
	if s.reporter == nil {
		return
	}
	s.reporter.Update(progress.Update{
		JobID:   s.jobID,
		Stage:   stage,
		Percent: percent,
		Message: msg,
	})
}

func (s *Service) logf(format string, args ...any) {
	if s.reporter == nil {
		return
	}
	s.reporter.Log(progress.Log{
		JobID:  s.jobID,
		Stream: progress.StreamStderr,
		Line:   fmt.Sprintf(format, args...),
	})
}
