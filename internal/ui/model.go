package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/downloader"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/history"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/model"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/pipeline"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/progress"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/tagger"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/util"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/util/deps"
)

type phase int

const (
	phaseDeps phase = iota
	phaseResolve
	phaseSelect
	phaseDownload
	phaseDone
)

const maxWorkers = 8

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	url  string
	opts model.Options
	gen  tagger.Generator
	hist *history.Log

	// App state (deps)
	phase          phase
	depsErr        error
	downloaderPath string
	ffmpegPath     string

	// Resolved playlist
	info       model.PlaylistInfo
	resolveErr error

	// Selection (playlist only); keyed by 1-based entry index
	selected map[int]bool
	cursor   int

	// Jobs
	queue    []model.Entry
	jobOrder []string
	jobs     map[string]*jobState
	workers  int
	running  int
	next     int // next index in queue to start

	// UI
	width, height int
	styles        Styles

	// Internal event channel used by reporter to feed tea messages
	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, url string, opts model.Options, gen tagger.Generator) Model {
	c, cancel := context.WithCancel(ctx)

	workers := opts.Jobs
	if workers <= 0 {
		workers = 4
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	return Model{
		ctx:      c,
		cancel:   cancel,
		url:      url,
		opts:     opts,
		gen:      gen,
		hist:     history.Open(opts.OutDir),
		phase:    phaseDeps,
		selected: make(map[int]bool),
		jobs:     make(map[string]*jobState),
		workers:  workers,
		styles:   defaultStyles(),
		eventCh:  make(chan tea.Msg, 256),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listenEventsCmd(), m.checkDepsCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case depsCheckedMsg:
		m.depsErr = msg.Err
		m.downloaderPath = msg.DownloaderPath
		m.ffmpegPath = msg.FFmpegPath
		if m.depsErr != nil {
			m.phase = phaseDone
			return m, tea.Quit
		}
		m.phase = phaseResolve
		return m, m.resolveCmd()

	case infoResolvedMsg:
		if msg.Err != nil {
			m.resolveErr = msg.Err
			m.phase = phaseDone
			return m, tea.Quit
		}
		m.info = msg.Info
		if !m.info.IsPlaylist {
			m.selected[1] = true
			return m.startDownload()
		}
		if err := m.initSelection(); err != nil {
			m.resolveErr = err
			m.phase = phaseDone
			return m, tea.Quit
		}
		m.phase = phaseSelect
		return m, nil

	case jobUpdateMsg:
		u := msg.U
		if js, ok := m.jobs[u.JobID]; ok {
			js.stage = u.Stage
			js.percent = u.Percent
			js.status = u.Message
			if u.Bytes != nil {
				js.bytes = *u.Bytes
			}
		}

	case jobLogMsg:
		l := msg.L
		if js, ok := m.jobs[l.JobID]; ok {
			line := strings.TrimRight(l.Line, "\r\n")
			if len(js.logsRing) > 1000 {
				js.logsRing = js.logsRing[1:]
			}
			js.logsRing = append(js.logsRing, line)
		}

	case jobResultMsg:
		r := msg.R
		if js, ok := m.jobs[r.JobID]; ok && !js.done {
			js.done = true
			js.err = r.Err
			if r.Err == nil {
				js.stage = progress.StageCompleted
				js.percent = 100
				js.outputPath = r.OutputPath
				js.bytes = r.Bytes
				js.tagged = r.Tagged
				if r.OutputPath != "" {
					name := filepath.Base(r.OutputPath)
					size := util.HumanizeBytes(r.Bytes)
					js.status = fmt.Sprintf("Saved: %s (%s)", name, size)
				} else {
					js.status = "Completed"
				}
			} else {
				js.stage = progress.StageError
				js.status = r.Err.Error()
				js.percent = -1
			}
			m.running--
			m.startNextWorkers()
			if m.running == 0 && m.next >= len(m.queue) {
				m.phase = phaseDone
				return m, tea.Quit
			}
		}

	case allDoneMsg:
		return m, tea.Quit
	}

	// Update per-job components (spinner)
	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		var c tea.Cmd
		js.spinner, c = js.spinner.Update(msg)
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	// Keep listening for events
	cmds = append(cmds, m.listenEventsCmd())
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.cancel()
		m.phase = phaseDone
		return m, tea.Quit
	}

	if m.phase != phaseSelect {
		return m, nil
	}

	n := len(m.info.Entries)
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}
	case " ":
		idx := m.cursor + 1
		m.selected[idx] = !m.selected[idx]
	case "a":
		all := len(m.selected) == n && allTrue(m.selected)
		for i := 1; i <= n; i++ {
			m.selected[i] = !all
		}
	case "enter":
		if countSelected(m.selected) == 0 {
			return m, nil
		}
		return m.startDownload()
	}
	return m, nil
}

// initSelection pre-selects playlist entries from the --items selector, or
// everything when unset. A selector that does not parse is an error, same as
// in plain mode.
func (m *Model) initSelection() error {
	n := len(m.info.Entries)
	if m.opts.Items != "" {
		sel, err := model.ParseSelection(m.opts.Items, n)
		if err != nil {
			return fmt.Errorf("invalid --items selector: %w", err)
		}
		m.selected = sel
		return nil
	}
	for i := 1; i <= n; i++ {
		m.selected[i] = true
	}
	return nil
}

// startDownload builds the job queue from the current selection and moves the
// UI to the download phase.
func (m Model) startDownload() (tea.Model, tea.Cmd) {
	for _, e := range m.info.Entries {
		if !m.selected[e.Index] {
			continue
		}
		id := uuid.NewString()
		js := newJobState(id, e, m.styles)
		m.jobs[id] = &js
		m.jobOrder = append(m.jobOrder, id)
		m.queue = append(m.queue, e)
	}
	m.phase = phaseDownload

	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		cmds = append(cmds, m.jobs[id].spinner.Tick)
	}
	m.startNextWorkers()
	return m, tea.Batch(cmds...)
}

// startNextWorkers launches queued jobs up to the worker limit.
func (m *Model) startNextWorkers() {
	select {
	case <-m.ctx.Done():
		return
	default:
	}
	for m.running < m.workers && m.next < len(m.queue) {
		idx := m.next
		m.next++
		m.running++
		id := m.jobOrder[idx]
		if js := m.jobs[id]; js != nil {
			js.started = true
			js.status = "Starting"
			js.stage = progress.StageMetadata
		}
		go m.runJob(id, m.queue[idx])
	}
}

func (m Model) runJob(jobID string, entry model.Entry) {
	rep := teaReporter{ch: m.eventCh}

	svc := pipeline.NewService(
		pipeline.WithDownloaderPath(m.downloaderPath),
		pipeline.WithFFmpegPath(m.ffmpegPath),
		pipeline.WithOptions(m.opts),
		pipeline.WithGenerator(m.gen),
		pipeline.WithHistory(m.hist),
		pipeline.WithReporter(rep),
		pipeline.WithJobID(jobID),
	)
	// RunEntry emits the success Result itself; only failures need reporting.
	if _, err := svc.RunEntry(m.ctx, entry); err != nil {
		rep.Result(progress.Result{JobID: jobID, Err: err})
	}
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return allDoneMsg{}
		case msg := <-m.eventCh:
			return msg
		}
	}
}

func (m Model) checkDepsCmd() tea.Cmd {
	return func() tea.Msg {
		dl, derr := deps.FindDownloader(m.opts.DLBinary)
		if derr != nil {
			return depsCheckedMsg{Err: derr}
		}
		ff, ferr := deps.FindFFmpeg()
		if ferr != nil {
			return depsCheckedMsg{Err: ferr}
		}
		return depsCheckedMsg{DownloaderPath: dl, FFmpegPath: ff, Err: nil}
	}
}

func (m Model) resolveCmd() tea.Cmd {
	return func() tea.Msg {
		info, err := downloader.FetchInfo(m.ctx, m.url, downloader.Options{
			DownloaderPath: m.downloaderPath,
			Verbose:        m.opts.Verbose,
		})
		if err != nil {
			err = fmt.Errorf("%w: %v", pipeline.ErrDownload, err)
		}
		return infoResolvedMsg{Info: info, Err: err}
	}
}

type teaReporter struct {
	ch chan tea.Msg
}

func (r teaReporter) Update(u progress.Update) {
	// Block on completion messages to ensure they're delivered
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.ch <- jobUpdateMsg{U: u}
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}

func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}

func (r teaReporter) Result(res progress.Result) {
	// Always block on Result messages - they're critical
	r.ch <- jobResultMsg{R: res}
}

func allTrue(sel map[int]bool) bool {
	for _, v := range sel {
		if !v {
			return false
		}
	}
	return true
}

func countSelected(sel map[int]bool) int {
	n := 0
	for _, v := range sel {
		if v {
			n++
		}
	}
	return n
}
