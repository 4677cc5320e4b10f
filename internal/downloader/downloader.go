// Package downloader wraps the external yt-dlp binary: URL resolution into
// playlist entries and per-entry media fetches.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/model"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/progress"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/util"
)

// Options controls downloader behavior.
type Options struct {
	DownloaderPath string // Path to yt-dlp or youtube-dl
	Kind           model.OutputKind
	Quality        model.Quality
	Continue       bool   // Resume partial downloads
	Workdir        string // Reuse this directory instead of a fresh temp dir (resume)
	Verbose        bool

	Reporter progress.Reporter // Optional
	JobID    string
	Runner   util.CmdRunner // Injected for tests; defaults to os/exec
}

func (o Options) runner() util.CmdRunner {
	if o.Runner != nil {
		return o.Runner
	}
	return util.NewDefaultRunner()
}

// FetchInfo resolves a URL into a PlaylistInfo without downloading media.
// Playlists are extracted flat: one entry per member, bare IDs normalized to
// full watch URLs.
func FetchInfo(ctx context.Context, rawURL string, opts Options) (model.PlaylistInfo, error) {
	if opts.DownloaderPath == "" {
		return model.PlaylistInfo{}, errors.New("downloader path is required")
	}
	u, err := util.ValidateYouTubeURL(rawURL)
	if err != nil {
		return model.PlaylistInfo{}, err
	}

	args := []string{
		"-J",
		"--flat-playlist",
		"--socket-timeout", "30",
		u.String(),
	}
	res, runErr := opts.runner().Run(ctx, util.CmdSpec{
		Path:          opts.DownloaderPath,
		Args:          args,
		Verbose:       opts.Verbose,
		CaptureStdout: true,
	})
	if runErr != nil && len(res.Stdout) == 0 {
		return model.PlaylistInfo{}, fmt.Errorf("metadata fetch failed: %w", runErr)
	}

	info, perr := parseInfo([]byte(strings.TrimSpace(string(res.Stdout))))
	if perr != nil {
		return model.PlaylistInfo{}, fmt.Errorf("parse metadata JSON: %w", perr)
	}

	if info.Type == "playlist" || len(info.Entries) > 0 {
		pl := model.PlaylistInfo{
			Title:      info.Title,
			Uploader:   info.Uploader,
			IsPlaylist: true,
		}
		for i, e := range info.Entries {
			entryURL := e.URL
			if entryURL == "" || !strings.Contains(entryURL, "http") {
				id := e.ID
				if id == "" {
					id = e.URL
				}
				entryURL = util.WatchURL(id)
			}
			pl.Entries = append(pl.Entries, model.Entry{
				Index:    i + 1,
				ID:       e.ID,
				Title:    e.Title,
				URL:      entryURL,
				Uploader: e.Uploader,
				Duration: e.Duration,
			})
		}
		if len(pl.Entries) == 0 {
			return model.PlaylistInfo{}, errors.New("playlist contains no entries")
		}
		return pl, nil
	}

	if info.ID == "" {
		return model.PlaylistInfo{}, errors.New("could not resolve URL: empty metadata")
	}
	entryURL := info.WebpageURL
	if entryURL == "" {
		entryURL = u.String()
	}
	return model.PlaylistInfo{
		Title:      info.Title,
		Uploader:   info.Uploader,
		IsPlaylist: false,
		Entries: []model.Entry{{
			Index:    1,
			ID:       info.ID,
			Title:    info.Title,
			URL:      entryURL,
			Uploader: info.Uploader,
			Duration: info.Duration,
		}},
	}, nil
}

// Download fetches the media for a single entry into a workdir: a fresh temp
// dir by default, or opts.Workdir when set so partial files from an earlier
// run can be resumed. Returns the downloaded media description and the
// workdir (caller cleans up).
func Download(ctx context.Context, entry model.Entry, opts Options) (model.DownloadedMedia, string, error) {
	if opts.DownloaderPath == "" {
		return model.DownloadedMedia{}, "", errors.New("downloader path is required")
	}

	workdir := opts.Workdir
	if workdir == "" {
		var err error
		workdir, err = util.MakeTempWorkdir("job")
		if err != nil {
			return model.DownloadedMedia{}, "", fmt.Errorf("create temp dir: %w", err)
		}
	} else if err := util.EnsureDir(workdir); err != nil {
		return model.DownloadedMedia{}, "", fmt.Errorf("create workdir: %w", err)
	}

	meta, err := fetchEntryMetadata(ctx, opts, entry.URL)
	if err != nil {
		return model.DownloadedMedia{}, workdir, err
	}

	outTemplate := filepath.Join(workdir, "%(id)s.%(ext)s")
	args := []string{
		"-f", FormatSelector(opts.Kind, opts.Quality),
		"-o", outTemplate,
		"--no-playlist",
		"--restrict-filenames",
		"--socket-timeout", "30",
		"--newline",
	}
	if opts.Kind == model.KindVideo {
		args = append(args, "--merge-output-format", "mp4")
	}
	if opts.Kind == model.KindAudio {
		// Thumbnail doubles as cover art for the tagging step.
		args = append(args, "--write-thumbnail")
	}
	if opts.Continue {
		args = append(args, "--continue")
	}
	args = append(args, entry.URL)

	spec := util.CmdSpec{
		Path:    opts.DownloaderPath,
		Args:    args,
		Dir:     workdir,
		Verbose: opts.Verbose,
	}
	if opts.Reporter != nil {
		rep, jobID := opts.Reporter, opts.JobID
		spec.StdoutLine = func(line string) {
			if u, ok := ParseProgress(line, jobID); ok {
				rep.Update(u)
			}
		}
		spec.StderrLine = func(line string) {
			rep.Log(progress.Log{JobID: jobID, Stream: progress.StreamStderr, Line: line})
		}
	}
	if _, runErr := opts.runner().Run(ctx, spec); runErr != nil {
		return model.DownloadedMedia{}, workdir, fmt.Errorf("downloader failed: %w", runErr)
	}

	id := meta.ID
	if id == "" {
		id = entry.ID
	}
	input, serr := SelectDownloadedFile(workdir, id)
	if serr != nil {
		return model.DownloadedMedia{}, workdir, fmt.Errorf("resolve download: %w", serr)
	}

	dm := model.DownloadedMedia{
		InputPath:    input,
		ID:           id,
		Title:        meta.Title,
		Uploader:     meta.Uploader,
		Description:  meta.Description,
		UploadDate:   meta.UploadDate,
		ThumbnailURL: meta.Thumbnail,
		DurationSec:  meta.Duration,
		URL:          entry.URL,
	}
	if opts.Kind == model.KindAudio {
		dm.ThumbnailPath = findThumbnail(workdir, id)
	}
	return dm, workdir, nil
}

// fetchEntryMetadata runs yt-dlp --dump-json for a single video.
func fetchEntryMetadata(ctx context.Context, opts Options, url string) (ytdlpInfo, error) {
	args := []string{
		"--dump-json",
		"--no-playlist",
		"--socket-timeout", "30",
		url,
	}
	res, runErr := opts.runner().Run(ctx, util.CmdSpec{
		Path:          opts.DownloaderPath,
		Args:          args,
		Verbose:       opts.Verbose,
		CaptureStdout: true,
	})
	if runErr != nil && len(res.Stdout) == 0 {
		return ytdlpInfo{}, fmt.Errorf("metadata fetch failed: %w", runErr)
	}

	// yt-dlp sometimes prints notices to stdout; take the last parseable line.
	data := strings.TrimSpace(string(res.Stdout))
	info, perr := parseInfo([]byte(data))
	if perr == nil && info.ID != "" {
		return info, nil
	}
	lines := strings.Split(data, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if tmp, err := parseInfo([]byte(line)); err == nil && tmp.ID != "" {
			return tmp, nil
		}
	}
	return ytdlpInfo{}, fmt.Errorf("parse metadata JSON: %w", perr)
}

// SelectDownloadedFile finds the best downloaded media file in workdir for
// the given video ID, preferring common playable containers.
func SelectDownloadedFile(workdir, id string) (string, error) {
	candidates, err := filepath.Glob(filepath.Join(workdir, id+".*"))
	if err != nil {
		return "", err
	}
	candidates = dropSidecars(candidates)

	if len(candidates) == 0 {
		all, _ := filepath.Glob(filepath.Join(workdir, "*"))
		all = dropSidecars(all)
		if len(all) == 0 {
			return "", errors.New("download succeeded but no output file found")
		}
		candidates = all
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		pri := extPriority(filepath.Ext(candidates[i]))
		prj := extPriority(filepath.Ext(candidates[j]))
		if pri == prj {
			return candidates[i] < candidates[j]
		}
		return pri < prj
	})
	return candidates[0], nil
}

// dropSidecars filters out thumbnails and partial-download artifacts.
func dropSidecars(paths []string) []string {
	out := paths[:0]
	for _, p := range paths {
		switch strings.ToLower(filepath.Ext(p)) {
		case ".jpg", ".jpeg", ".png", ".webp", ".part", ".ytdl", ".json":
			continue
		}
		out = append(out, p)
	}
	return out
}

func findThumbnail(workdir, id string) string {
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp"} {
		p := filepath.Join(workdir, id+ext)
		if matches, _ := filepath.Glob(p); len(matches) > 0 {
			return matches[0]
		}
	}
	return ""
}

// extPriority returns a priority score for media extensions (lower = better).
func extPriority(ext string) int {
	e := strings.ToLower(strings.TrimPrefix(ext, "."))
	switch e {
	case "mp4":
		return 0
	case "m4a":
		return 1
	case "mkv":
		return 2
	case "webm":
		return 3
	case "opus":
		return 4
	case "mov":
		return 5
	default:
		return 9
	}
}
