package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/model"
	"github.com/iamtgiri/YT-Playlist-Downloader/internal/pipeline"
)

func TestFailureErrorKeepsSentinels(t *testing.T) {
	fm := Model{
		jobOrder: []string{"a", "b", "c"},
		jobs: map[string]*jobState{
			"a": {entry: model.Entry{Title: "One"}},
			"b": {entry: model.Entry{Title: "Two"}, err: fmt.Errorf("%w: yt-dlp exit 1", pipeline.ErrDownload)},
			"c": {entry: model.Entry{Title: "Three"}, err: fmt.Errorf("%w: ffmpeg exit 1", pipeline.ErrConvert)},
		},
	}
	err := failureError(fm)
	if err == nil {
		t.Fatal("failureError = nil, want error")
	}
	if !errors.Is(err, pipeline.ErrConvert) {
		t.Errorf("convert sentinel lost: %v", err)
	}
	if !strings.Contains(err.Error(), "2 job(s)") {
		t.Errorf("failureError = %v, want two failures listed", err)
	}
}

func TestFailureErrorNilWhenAllSucceed(t *testing.T) {
	fm := Model{
		jobOrder: []string{"a"},
		jobs:     map[string]*jobState{"a": {entry: model.Entry{Title: "One"}, done: true}},
	}
	if err := failureError(fm); err != nil {
		t.Errorf("failureError = %v, want nil", err)
	}
}

func TestInitSelectionRejectsBadSelector(t *testing.T) {
	m := Model{
		opts:     model.Options{Items: "1-"},
		selected: make(map[int]bool),
		info: model.PlaylistInfo{
			IsPlaylist: true,
			Entries:    []model.Entry{{Index: 1}, {Index: 2}},
		},
	}
	if err := m.initSelection(); err == nil {
		t.Fatal("initSelection accepted invalid selector")
	}

	m.opts.Items = "2"
	if err := m.initSelection(); err != nil {
		t.Fatalf("initSelection: %v", err)
	}
	if !m.selected[2] || m.selected[1] {
		t.Errorf("selected = %v, want index 2 only", m.selected)
	}
}
