package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/config"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/dirs"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/history"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/model"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/pipeline"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/progress"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/tagger"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/ui"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/util"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/util/deps"
)

type runMode struct {
	ForceTUI bool
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "run <url>",
		Short:         "Download a playlist or video",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		PreRunE:       runPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{ForceTUI: false})
		},
	}
	// Bind same flags as root for explicit subcommand usage
	bindRunFlags(cmd.Flags())
	return cmd
}

type ctxKey string

const runInputsKey ctxKey = "runInputs"

type runInputs struct {
	URL     string
	Options model.Options
}

func runPreRun(cmd *cobra.Command, args []string) error {
	url, opts, err := assembleRunInputs(cmd, args)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	ctx := context.WithValue(cmd.Context(), runInputsKey, runInputs{
		URL:     url,
		Options: opts,
	})
	cmd.SetContext(ctx)
	return nil
}

func assembleRunInputs(cmd *cobra.Command, args []string) (string, model.Options, error) {
	// Persistent flags with precedence: flag > env/config > default
	outDir := resolveString(cmd, "out-dir", config.KeyOutDir, "")
	verbose := resolveBool(cmd, "verbose", config.KeyVerbose)
	dlBinary := resolveString(cmd, "dl-binary", config.KeyDLBinary, "")
	jobs := resolveInt(cmd, "jobs", config.KeyJobs, 4)
	if jobs < 1 {
		jobs = 1
	}
	if jobs > 8 {
		jobs = 8
	}

	// Run flags
	format, _ := cmd.Flags().GetString("format")
	items, _ := cmd.Flags().GetString("items")
	resume, _ := cmd.Flags().GetBool("continue")
	keepTemp, _ := cmd.Flags().GetBool("keep-temp")
	noUI, _ := cmd.Flags().GetBool("no-ui")
	noTag, _ := cmd.Flags().GetBool("no-tag")

	kind, quality, err := parseFormat(format)
	if err != nil {
		return "", model.Options{}, err
	}

	url := args[0]
	u, err := util.ValidateYouTubeURL(url)
	if err != nil {
		return "", model.Options{}, err
	}
	if items != "" && !util.IsPlaylistURL(u) {
		return "", model.Options{}, fmt.Errorf("--items requires a playlist URL")
	}

	if outDir == "" {
		d, derr := dirs.DefaultOutputDir()
		if derr != nil {
			return "", model.Options{}, fmt.Errorf("resolve default output dir: %w", derr)
		}
		outDir = d
	}
	outDir = filepath.Clean(outDir)

	opts := model.Options{
		OutDir:   outDir,
		Kind:     kind,
		Quality:  quality,
		Items:    items,
		Jobs:     jobs,
		KeepTemp: keepTemp,
		Continue: resume,
		DLBinary: dlBinary,
		Verbose:  verbose,
		NoUI:     noUI,
		NoTag:    noTag,
	}
	return url, opts, nil
}

func parseFormat(format string) (model.OutputKind, model.Quality, error) {
	switch strings.ToLower(format) {
	case "mp3", "audio":
		return model.KindAudio, "", nil
	case string(model.QualityBest), "mp4":
		return model.KindVideo, model.QualityBest, nil
	case string(model.Quality1080), "1080":
		return model.KindVideo, model.Quality1080, nil
	case string(model.Quality720), "720":
		return model.KindVideo, model.Quality720, nil
	case string(model.Quality480), "480":
		return model.KindVideo, model.Quality480, nil
	default:
		return "", "", fmt.Errorf("invalid --format: %q (valid: best|1080p|720p|480p|mp3)", format)
	}
}

func runExecute(cmd *cobra.Command, args []string, mode runMode) error {
	// Grab inputs from context; if not present (root directly called without PreRunE), assemble now.
	var in runInputs
	if v := cmd.Context().Value(runInputsKey); v != nil {
		in = v.(runInputs)
	} else {
		url, opts, err := assembleRunInputs(cmd, args)
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		in = runInputs{URL: url, Options: opts}
	}

	if err := ensureDir(in.Options.OutDir); err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("failed to create output dir: %v", err)}
	}

	gen := newGenerator(in.Options)

	// TUI path (forced or auto if TTY and not disabled)
	useTUI := mode.ForceTUI || (!in.Options.NoUI && isTerminal())
	if useTUI {
		if err := ui.Run(cmd.Context(), in.URL, in.Options, gen); err != nil {
			return &ExitError{Code: runExitCode(err), Err: err}
		}
		return nil
	}

	return runPlain(cmd.Context(), in, gen)
}

// runExitCode maps a run failure to the documented exit code.
func runExitCode(err error) int {
	switch {
	case errors.Is(err, deps.ErrMissing):
		return ExitMissingDep
	case errors.Is(err, pipeline.ErrConvert):
		return ExitTranscodeError
	case errors.Is(err, pipeline.ErrDownload):
		return ExitDownloadError
	default:
		return ExitCLIError
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// runPlain drives the pipeline without the TUI: resolve, select entries from
// --items, then download with a bounded worker pool.
func runPlain(ctx context.Context, in runInputs, gen tagger.Generator) error {
	downloaderPath, derr := deps.FindDownloader(in.Options.DLBinary)
	if derr != nil {
		return &ExitError{Code: ExitMissingDep, Err: derr}
	}
	ffmpegPath, ferr := deps.FindFFmpeg()
	if ferr != nil {
		return &ExitError{Code: ExitMissingDep, Err: ferr}
	}

	resolver := pipeline.NewService(
		pipeline.WithDownloaderPath(downloaderPath),
		pipeline.WithOptions(in.Options),
	)
	info, err := resolver.ResolveInfo(ctx, in.URL)
	if err != nil {
		return &ExitError{Code: ExitDownloadError, Err: err}
	}

	entries, err := selectEntries(info, in.Options.Items)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	if info.IsPlaylist {
		fmt.Printf("Playlist: %s (%d of %d entries)\n", info.Title, len(entries), len(info.Entries))
	}

	hist := history.Open(in.Options.OutDir)

	workers := in.Options.Jobs
	if workers > len(entries) {
		workers = len(entries)
	}

	var (
		wg       sync.WaitGroup
		sem      = make(chan struct{}, workers)
		mu       sync.Mutex
		failed   int
		exitCode = ExitDownloadError
	)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		entry := entry
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			svc := pipeline.NewService(
				pipeline.WithDownloaderPath(downloaderPath),
				pipeline.WithFFmpegPath(ffmpegPath),
				pipeline.WithOptions(in.Options),
				pipeline.WithGenerator(gen),
				pipeline.WithHistory(hist),
				pipeline.WithReporter(&plainReporter{mu: &mu, entry: entry, verbose: in.Options.Verbose}),
				pipeline.WithJobID(uuid.NewString()),
			)
			if _, rerr := svc.RunEntry(ctx, entry); rerr != nil {
				mu.Lock()
				fmt.Fprintf(os.Stderr, "[%d] error: %v\n", entry.Index, rerr)
				failed++
				if errors.Is(rerr, pipeline.ErrConvert) {
					exitCode = ExitTranscodeError
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return &ExitError{Code: ExitCLIError, Err: errors.New("interrupted")}
	}
	if failed > 0 {
		return &ExitError{Code: exitCode, Err: fmt.Errorf("%d of %d download(s) failed", failed, len(entries))}
	}
	return nil
}

// selectEntries applies the --items selector to resolved entries.
func selectEntries(info model.PlaylistInfo, selector string) ([]model.Entry, error) {
	if selector == "" || !info.IsPlaylist {
		return info.Entries, nil
	}
	sel, err := model.ParseSelection(selector, len(info.Entries))
	if err != nil {
		return nil, err
	}
	var out []model.Entry
	for _, e := range info.Entries {
		if sel[e.Index] {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("selector %q matches no entries", selector)
	}
	return out, nil
}

// newGenerator returns the configured tag generator, or nil when tagging is
// disabled or no API key is set.
func newGenerator(opts model.Options) tagger.Generator {
	if opts.NoTag || opts.Kind != model.KindAudio {
		return nil
	}
	key := config.TagAPIKey()
	if key == "" {
		return nil
	}
	gen, err := tagger.NewLLMGenerator(key, config.TagModel())
	if err != nil {
		return nil
	}
	return gen
}

// plainReporter prints progress lines to the terminal, one entry per prefix.
type plainReporter struct {
	mu      *sync.Mutex
	entry   model.Entry
	verbose bool

	lastStage progress.Stage
}

func (r *plainReporter) Update(u progress.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.Stage != r.lastStage {
		r.lastStage = u.Stage
		fmt.Printf("[%d] %s: %s\n", r.entry.Index, u.Stage, r.entry.Title)
		return
	}
	if u.Stage == progress.StageDownloading && u.Percent >= 0 && r.verbose {
		fmt.Printf("[%d] %5.1f%% %s\n", r.entry.Index, u.Percent, u.Message)
	}
}

func (r *plainReporter) Log(l progress.Log) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(os.Stderr, "[%d] %s\n", r.entry.Index, l.Line)
}

func (r *plainReporter) Result(res progress.Result) {
	if res.Err != nil || res.OutputPath == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Printf("[%d] Saved: %s (%s)\n", r.entry.Index, res.OutputPath, util.HumanizeBytes(res.Bytes))
}
