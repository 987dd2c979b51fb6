package m3u

import (
	"fmt"
	"path/filepath"
	"strings"

	"yt-music-sync/internal/fsutil"
)

// Write emits the index file for one playlist: three GONIC header lines
// carrying the display name and visibility metadata, then one resolved path
// per song. Albums never get an index file; callers enforce that.
func Write(indexFolder, playlistID, name string, paths []string) (string, error) {
	id := strings.TrimSpace(playlistID)
	if id == "" {
		return "", fmt.Errorf("playlist id is required")
	}
	if err := fsutil.Mkdir(indexFolder); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#GONIC-NAME:%q\n", name)
	b.WriteString("#GONIC-COMMENT:\"\"\n")
	b.WriteString("#GONIC-IS-PUBLIC:\"false\"\n")
	for _, p := range paths {
		b.WriteString(p + "\n")
	}

	path := filepath.Join(indexFolder, id+".m3u")
	if err := fsutil.WriteBytes(path, []byte(b.String())); err != nil {
		return "", err
	}
	return path, nil
}

// RemapPath rewrites a path under baseFolder to the configured mount path,
// which is how index entries stay valid for the media server's view of the
// library.
func RemapPath(path, baseFolder, mountPath string) string {
	if baseFolder == "" || baseFolder == mountPath {
		return path
	}
	if rel, err := filepath.Rel(baseFolder, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.Join(mountPath, rel)
	}
	return path
}
