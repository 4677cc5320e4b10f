package ui

import (
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/model"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/progress"
)

type depsCheckedMsg struct {
	DownloaderPath string
	FFmpegPath     string
	Err            error
}

type infoResolvedMsg struct {
	Info model.PlaylistInfo
	Err  error
}

type jobUpdateMsg struct {
	U progress.Update
}

type jobLogMsg struct {
	L progress.Log
}

type jobResultMsg struct {
	R progress.Result
}

type allDoneMsg struct{}
