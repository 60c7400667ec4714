package batch

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/grafov/m3u8"
	"github.com/samber/lo"

	"github.com/jmagar/tunefetch/internal/helpers"
	"github.com/jmagar/tunefetch/internal/model"
)

// ImportResult counts what an import did with each playlist entry.
type ImportResult struct {
	Added      int
	Duplicates int
	// Local counts entries that point at files on disk rather than a service.
	Local int
}

// ReadPlaylist returns the entry URIs of an M3U or M3U8 file in order.
// Extended playlists go through the m3u8 decoder; plain lists fall back to one
// entry per non-comment line.
func ReadPlaylist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}
	if uris := decodeExtended(data); len(uris) > 0 {
		return uris, nil
	}
	return helpers.ReadTxtFile(path)
}

func decodeExtended(data []byte) []string {
	if !bytes.Contains(data, []byte("#EXTINF")) {
		return nil
	}
	playlist, listType, err := m3u8.DecodeFrom(bytes.NewReader(data), false)
	if err != nil || listType != m3u8.MEDIA {
		return nil
	}
	media, ok := playlist.(*m3u8.MediaPlaylist)
	if !ok {
		return nil
	}
	var uris []string
	for _, seg := range media.Segments {
		if seg == nil {
			continue
		}
		if uri := strings.TrimSpace(seg.URI); uri != "" {
			uris = append(uris, uri)
		}
	}
	return uris
}

// IsRemote reports whether an entry names something a downloader can fetch.
func IsRemote(entry string) bool {
	lowered := strings.ToLower(entry)
	return strings.Contains(lowered, "://") || strings.HasPrefix(lowered, "spotify:")
}

// Import appends the remote entries of playlistPath to the manifest at
// manifestPath, creating it when missing. Targets already in the manifest are
// left alone whatever their marker.
func Import(playlistPath, manifestPath string) (ImportResult, error) {
	var res ImportResult
	entries, err := ReadPlaylist(playlistPath)
	if err != nil {
		return res, err
	}

	lock, err := AcquireLock(manifestPath+".lock", 0)
	if err != nil {
		return res, err
	}
	defer lock.Release()

	m, err := ReadManifest(manifestPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		m = &Manifest{Path: manifestPath, mode: 0644}
	case err != nil:
		return res, err
	}

	seen := lo.SliceToMap(m.Items, func(item model.BatchItem) (string, struct{}) {
		return item.CleanTarget, struct{}{}
	})
	lineNo := len(m.Items)
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if !IsRemote(entry) {
			res.Local++
			continue
		}
		if _, dup := seen[entry]; dup {
			res.Duplicates++
			continue
		}
		seen[entry] = struct{}{}
		lineNo++
		m.Items = append(m.Items, ParseLine(lineNo, entry))
		res.Added++
	}
	if res.Added == 0 {
		return res, nil
	}
	return res, m.Save()
}
