package ui

import (
	"fmt"
	"strings"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/progress"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/util"
)

func (m Model) View() string {
	switch m.phase {
	case phaseDeps:
		return m.viewHeader() + "\n\n" + m.styles.Faint.Render("Checking yt-dlp and ffmpeg...") + "\n"
	case phaseResolve:
		return m.viewHeader() + "\n\n" + m.styles.Faint.Render("Resolving "+truncate(m.url, 64)+"...") + "\n"
	case phaseSelect:
		return m.viewHeader() + "\n\n" + m.viewSelection()
	default:
		summary := m.viewSummary()
		if summary != "" {
			return m.viewHeader() + "\n\n" + m.viewJobs() + "\n" + summary
		}
		return m.viewHeader() + "\n\n" + m.viewJobs()
	}
}

func (m Model) viewHeader() string {
	title := m.styles.Title.Render("ytpl — YouTube playlist downloader")
	var sub string
	switch m.phase {
	case phaseSelect:
		sub = m.styles.Subtitle.Render(fmt.Sprintf(
			"%s • %d/%d selected • space: toggle • a: all/none • enter: start • q: quit",
			truncate(m.info.Title, 40), countSelected(m.selected), len(m.info.Entries)))
	case phaseDownload, phaseDone:
		done, total := 0, len(m.jobOrder)
		for _, id := range m.jobOrder {
			if m.jobs[id].done {
				done++
			}
		}
		sub = m.styles.Subtitle.Render(fmt.Sprintf("Jobs: %d/%d done • q: quit", done, total))
	default:
		sub = m.styles.Subtitle.Render("q: quit")
	}
	return title + "\n" + sub
}

func (m Model) viewSelection() string {
	var b strings.Builder
	for i, e := range m.info.Entries {
		cursor := "  "
		if i == m.cursor {
			cursor = m.styles.Cursor.Render("> ")
		}
		check := "[ ]"
		if m.selected[e.Index] {
			check = m.styles.Checked.Render("[x]")
		}
		title := e.Title
		if title == "" {
			title = e.URL
		}
		line := fmt.Sprintf("%s%s %3d. %s", cursor, check, e.Index, truncate(title, 60))
		if e.Duration > 0 {
			line += "  " + m.styles.Faint.Render(util.FormatDuration(e.Duration))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewJobs() string {
	var b strings.Builder
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		b.WriteString(m.viewJob(js))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewJob(js *jobState) string {
	stageStyle := m.styles.JobInfo
	switch js.stage {
	case progress.StageMetadata:
		stageStyle = m.styles.StageMeta
	case progress.StageDownloading:
		stageStyle = m.styles.StageDL
	case progress.StageConverting:
		stageStyle = m.styles.StageConv
	case progress.StageTagging:
		stageStyle = m.styles.StageTag
	case progress.StageCompleted:
		stageStyle = m.styles.Success
	case progress.StageError:
		stageStyle = m.styles.Error
	}

	title := js.entry.Title
	if title == "" {
		title = js.entry.URL
	}
	left := m.styles.JobTitle.Render(truncate(title, 48))
	stage := stageStyle.Render(string(js.stage))

	var right string
	if js.percent >= 0 && js.percent <= 100 {
		right = fmt.Sprintf("%s %5.1f%%", js.bar.ViewAs(js.percent/100.0), js.percent)
	} else if js.done && js.err == nil {
		right = m.styles.Success.Render("✓ done")
	} else if js.err != nil {
		right = m.styles.Error.Render("✗ error")
	} else {
		right = m.styles.Spinner.Render(js.spinner.View()) + " " + m.styles.Faint.Render("waiting")
	}

	info := js.status
	line1 := fmt.Sprintf("%s  %s", left, stage)
	line2 := m.styles.JobInfo.Render(info)
	return m.styles.Box.Render(line1 + "\n" + right + "\n" + line2)
}

func (m Model) viewSummary() string {
	var completed []string
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		if js.done && js.err == nil && js.outputPath != "" {
			completed = append(completed, js.outputPath)
		}
	}

	if len(completed) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("✓ Completed Files:"))
	b.WriteString("\n")
	for _, path := range completed {
		b.WriteString(m.styles.Success.Render("  • " + path))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	if n <= 0 || len([]rune(s)) <= n {
		return s
	}
	rs := []rune(s)
	return string(rs[:n-1]) + "…"
}
