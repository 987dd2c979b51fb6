package media

import (
	"fmt"

	"github.com/bogem/id3v2"
)

// Tagger refreshes the album-membership tags of already-downloaded files.
// Titles and artists are written by the downloader at download time; only
// the album name and track number change when a song is adopted into an
// album.
type Tagger struct{}

func NewTagger() *Tagger {
	return &Tagger{}
}

func (t *Tagger) WriteTags(file, album string, track int) error {
	tag, err := id3v2.Open(file, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open tags for %s: %w", file, err)
	}
	defer tag.Close()

	tag.SetAlbum(album)
	if track > 0 {
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, fmt.Sprintf("%d", track))
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tags for %s: %w", file, err)
	}
	return nil
}
