// Package tagger enriches output files with metadata. Tag generation is
// delegated to an external chat-completion service; writing uses ID3v2 for
// MP3 and MP4 atoms for video. Every failure here degrades to fallback tags
// or to an untagged file; the tagger never fails the pipeline.
package tagger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gage-technologies/mistral-go"

	"github.com/iamtgiri/YT-Playlist-Downloader/internal/model"
)

// TagSet is the cleaned metadata record attached to an output file.
type TagSet struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Track    string `json:"track"` // e.g. "5/12"
	Year     string `json:"year"`
	Genre    string `json:"genre"`
	Comment  string `json:"comment"`
	CoverURL string `json:"cover_url"`
}

// Generator produces a TagSet from raw media metadata.
type Generator interface {
	Generate(ctx context.Context, meta model.DownloadedMedia) (TagSet, error)
}

const (
	defaultModel   = "mistral-small-latest"
	requestTimeout = 30 * time.Second
)

const promptTemplate = `Given raw metadata of a downloaded music file, return a cleaned JSON object
with exactly these string fields: title, artist, album, track, year, genre, comment, cover_url.
- Use "" for unknown fields, never null.
- "title" must never be empty.
- Strip noise like "(Official Video)", "[HD]", "Lyrics" from the title.
- If the uploader looks like an artist channel (e.g. "Artist - Topic"), clean it into the artist name.
Respond with the JSON object only, no prose and no code fences.

Raw metadata:
title: %s
uploader: %s
upload_date: %s
description: %s
thumbnail: %s`

// LLMGenerator asks a chat-completion service to clean raw metadata into tags.
type LLMGenerator struct {
	client *mistral.MistralClient
	model  string
}

// NewLLMGenerator returns a Generator backed by the Mistral API, or an error
// when no API key is configured.
func NewLLMGenerator(apiKey, modelName string) (*LLMGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("tagger: no API key configured")
	}
	if modelName == "" {
		modelName = defaultModel
	}
	return &LLMGenerator{
		client: mistral.NewMistralClientDefault(apiKey),
		model:  modelName,
	}, nil
}

// Generate implements Generator.
func (g *LLMGenerator) Generate(ctx context.Context, meta model.DownloadedMedia) (TagSet, error) {
	desc := meta.Description
	if len(desc) > 2000 {
		desc = desc[:2000]
	}
	prompt := fmt.Sprintf(promptTemplate, meta.Title, meta.Uploader, meta.UploadDate, desc, meta.ThumbnailURL)

	done := make(chan struct{})
	var res *mistral.ChatCompletionResponse
	var err error
	go func() {
		defer close(done)
		res, err = g.client.Chat(g.model, []mistral.ChatMessage{
			{Role: mistral.RoleUser, Content: prompt},
		}, &mistral.ChatRequestParams{
			Temperature: 0.3,
			MaxTokens:   512,
		})
	}()
	select {
	case <-ctx.Done():
		return TagSet{}, ctx.Err()
	case <-time.After(requestTimeout):
		return TagSet{}, errors.New("tagger: request timed out")
	case <-done:
	}
	if err != nil {
		return TagSet{}, fmt.Errorf("tagger: chat request: %w", err)
	}
	if len(res.Choices) == 0 {
		return TagSet{}, errors.New("tagger: empty response")
	}

	tags, perr := ParseTagJSON(res.Choices[0].Message.Content)
	if perr != nil {
		return TagSet{}, perr
	}
	if tags.Title == "" {
		tags.Title = strings.TrimSpace(meta.Title)
	}
	return tags, nil
}

// ParseTagJSON extracts a TagSet from a model reply, tolerating code fences
// and surrounding prose.
func ParseTagJSON(reply string) (TagSet, error) {
	s := strings.TrimSpace(reply)
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	var tags TagSet
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return TagSet{}, fmt.Errorf("tagger: parse reply: %w", err)
	}
	return tags, nil
}

// FallbackTags derives deterministic tags from yt-dlp metadata. Used whenever
// the generator is unavailable or fails.
func FallbackTags(meta model.DownloadedMedia, outputPath string) TagSet {
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		base := filepath.Base(outputPath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	year := ""
	if len(meta.UploadDate) >= 4 {
		year = meta.UploadDate[:4]
	}
	return TagSet{
		Title:    title,
		Artist:   strings.TrimSpace(meta.Uploader),
		Year:     year,
		Comment:  meta.URL,
		CoverURL: meta.ThumbnailURL,
	}
}
