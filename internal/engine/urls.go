package engine

import (
	"regexp"
	"strings"
)

// IsAlbumURL reports whether a source URL names a fixed track collection.
// YouTube Music albums either carry an /album/ path or an OLAK5uy_ playlist
// id.
func IsAlbumURL(url string) bool {
	return strings.Contains(url, "/album/") || strings.Contains(url, "OLAK5uy_")
}

var playlistIDPattern = regexp.MustCompile(`list=([^&]+)`)

func ExtractPlaylistID(url string) string {
	m := playlistIDPattern.FindStringSubmatch(url)
	if len(m) > 1 {
		return m[1]
	}
	return ""
}

func WatchURL(mediaID string) string {
	return "https://www.youtube.com/watch?v=" + mediaID
}

var (
	albumMarkerPattern = regexp.MustCompile(`^Album - `)
	unsafeCharPattern  = regexp.MustCompile(`[^\w\s._-]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// SanitizeTitle cleans a fetched collection title for use as a folder name:
// albums lose their leading "Album - " marker, unsafe characters are
// dropped, and whitespace is collapsed.
func SanitizeTitle(title string, album bool) string {
	if album {
		title = albumMarkerPattern.ReplaceAllString(title, "")
	}
	title = unsafeCharPattern.ReplaceAllString(title, "")
	title = whitespacePattern.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}
