// Package history keeps an append-only JSONL log of completed and failed
// downloads alongside the output files.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/model"
)

// FileName is the log file created in the output directory.
const FileName = "download_history.jsonl"

// Log appends download records to a JSONL file. Safe for concurrent use.
type Log struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// Open returns a Log writing to FileName inside outDir. The file is created
// lazily on first append.
func Open(outDir string) *Log {
	return &Log{
		path: filepath.Join(outDir, FileName),
		now:  time.Now,
	}
}

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

// Append writes one record. A zero Timestamp is filled in.
func (l *Log) Append(rec model.HistoryRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now().UTC()
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("history: marshal record: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("history: open log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("history: write record: %w", err)
	}
	return nil
}

// Tail returns up to n most recent records, oldest first. Corrupt lines are
// skipped. A missing log file yields an empty slice.
func (l *Log) Tail(n int) ([]model.HistoryRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: open log: %w", err)
	}
	defer f.Close()

	var recs []model.HistoryRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		var rec model.HistoryRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			continue
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("history: read log: %w", err)
	}
	if n > 0 && len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	return recs, nil
}
