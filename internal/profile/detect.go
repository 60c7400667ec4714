package profile

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/jmagar/tunefetch/internal/model"
)

var (
	spotifyURLRe = regexp.MustCompile(`^https?://open\.spotify\.com/(?:intl-[a-z]{2}/)?(track|album|playlist|artist)/([A-Za-z0-9]+)`)
	spotifyURIRe = regexp.MustCompile(`^spotify:(track|album|playlist|artist):([A-Za-z0-9]+)$`)
)

var spotifyKinds = map[string]model.Kind{
	"track":    model.KindTrack,
	"album":    model.KindAlbum,
	"playlist": model.KindPlaylist,
	"artist":   model.KindArtist,
}

// DetectKind recognises Spotify and YouTube URLs. ok is false for anything else,
// including free text.
func DetectKind(target string) (kind model.Kind, ok bool) {
	target = strings.TrimSpace(target)
	if m := spotifyURLRe.FindStringSubmatch(target); m != nil {
		return spotifyKinds[m[1]], true
	}
	if m := spotifyURIRe.FindStringSubmatch(target); m != nil {
		return spotifyKinds[m[1]], true
	}
	return detectYouTube(target)
}

func detectYouTube(target string) (model.Kind, bool) {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return model.KindTrack, false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch host {
	case "youtu.be":
		return model.KindTrack, strings.Trim(u.Path, "/") != ""
	case "youtube.com", "m.youtube.com", "music.youtube.com":
	default:
		return model.KindTrack, false
	}

	path := u.Path
	switch {
	case path == "/watch" && u.Query().Get("v") != "":
		return model.KindTrack, true
	case path == "/playlist" && u.Query().Get("list") != "":
		if strings.HasPrefix(u.Query().Get("list"), "OLAK5uy_") {
			return model.KindAlbum, true
		}
		return model.KindPlaylist, true
	case strings.HasPrefix(path, "/browse/MPREb"):
		return model.KindAlbum, true
	case strings.HasPrefix(path, "/shorts/"):
		return model.KindTrack, true
	case strings.HasPrefix(path, "/@"), strings.HasPrefix(path, "/channel/"), strings.HasPrefix(path, "/c/"):
		return model.KindArtist, true
	}
	return model.KindTrack, false
}
