package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/model"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/pipeline"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/tagger"
)

// Run launches the TUI for a single URL: resolve, optionally pick playlist
// entries, then download with a bounded worker pool.
func Run(ctx context.Context, url string, opts model.Options, gen tagger.Generator) error {
	m := NewModel(ctx, url, opts, gen)
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return err
	}
	fm, ok := final.(Model)
	if !ok {
		return nil
	}
	if fm.depsErr != nil {
		return fm.depsErr
	}
	if fm.resolveErr != nil {
		return fm.resolveErr
	}
	return failureError(fm)
}

// failureError aggregates job errors into one error, keeping the pipeline
// sentinels intact so the CLI can map the failure to an exit code.
func failureError(fm Model) error {
	var failed []string
	root := pipeline.ErrDownload
	for _, id := range fm.jobOrder {
		js := fm.jobs[id]
		if js == nil || js.err == nil {
			continue
		}
		title := js.entry.Title
		if title == "" {
			title = js.entry.URL
		}
		failed = append(failed, fmt.Sprintf("- %s: %s", title, js.err.Error()))
		if errors.Is(js.err, pipeline.ErrConvert) {
			root = pipeline.ErrConvert
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d job(s)\n%s", root, len(failed), strings.Join(failed, "\n"))
}
