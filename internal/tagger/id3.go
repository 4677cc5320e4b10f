package tagger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"
)

const coverFetchTimeout = 10 * time.Second

// WriteMP3 writes tags as ID3v2.4 frames. The cover image is taken from
// localCover when present, otherwise fetched from tags.CoverURL; a missing
// cover is not an error.
func WriteMP3(ctx context.Context, path string, tags TagSet, localCover string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("tagger: open mp3: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(tags.Title)
	if tags.Artist != "" {
		tag.SetArtist(tags.Artist)
	}
	if tags.Album != "" {
		tag.SetAlbum(tags.Album)
	}
	if tags.Genre != "" {
		tag.SetGenre(tags.Genre)
	}
	if tags.Year != "" {
		tag.SetYear(tags.Year)
	}
	if tags.Track != "" {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, tags.Track)
	}
	if tags.Comment != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding: id3v2.EncodingUTF8,
			Language: "eng",
			Text:     tags.Comment,
		})
	}

	if pic, mime, ok := loadCover(ctx, localCover, tags.CoverURL); ok {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mime,
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     pic,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("tagger: save mp3 tags: %w", err)
	}
	return nil
}

func loadCover(ctx context.Context, localPath, coverURL string) (data []byte, mime string, ok bool) {
	if localPath != "" {
		if b, err := os.ReadFile(localPath); err == nil && len(b) > 0 {
			return b, mimeForExt(filepath.Ext(localPath)), true
		}
	}
	if coverURL == "" {
		return nil, "", false
	}
	b, mime, err := fetchCover(ctx, coverURL)
	if err != nil {
		return nil, "", false
	}
	return b, mime, true
}

func fetchCover(ctx context.Context, url string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, coverFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("tagger: cover fetch: status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, "", err
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = mimeForExt(filepath.Ext(url))
	}
	return b, mime, nil
}

func mimeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
