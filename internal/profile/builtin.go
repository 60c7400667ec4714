package profile

import "github.com/jmagar/tunefetch/internal/model"

// Built-in profile names.
const (
	SpotDL = "spotdl"
	YTDLP  = "yt-dlp"
)

// Spotdl returns the profile for the spotdl metadata-driven downloader.
func Spotdl() *Profile {
	return &Profile{
		Name:         SpotDL,
		Binary:       "spotdl",
		DownloadArgs: []string{"download"},
		TargetFirst:  true,
		OutputFlag:   "--output",
		FormatFlag:   "--format",
		QualityFlag:  "--bitrate",
		CookieFlag:   "--cookie-file",
		TokenFlag:    "--auth-token",
		CommonArgs:   []string{"--overwrite", "skip"},
		ValidateArgs: []string{"--skip-download", "--print-json", "--no-warnings"},
		VersionArgs:  []string{"--version"},
		Env:          []string{"PYTHONUNBUFFERED=1", "PYTHONIOENCODING=utf-8"},
		Templates: map[string]string{
			model.KindTrack.String():       "{artists} - {title}.{output-ext}",
			model.KindAlbum.String():       "{artists}/{album}/{artist} - {title}.{output-ext}",
			model.KindPlaylist.String():    "{playlist}/{artists} - {title}.{output-ext}",
			model.KindArtist.String():      "{artist}/{album}/{artists} - {title}.{output-ext}",
			model.KindSearchQuery.String(): "{artists} - {title}.{output-ext}",
		},
		KindArgs: map[string][]string{
			model.KindPlaylist.String(): {"--playlist-numbering", "--playlist-retain-track-cover"},
		},
		Collections: map[string]Collection{
			"liked": {
				Target:   "saved",
				Template: "Liked Songs/{artists} - {title}.{output-ext}",
				Args:     []string{"--user-auth"},
			},
			"playlists": {
				Target:   "all-user-playlists",
				Template: "{playlist}/{artists} - {title}.{output-ext}",
				Args:     []string{"--user-auth"},
			},
			"albums": {
				Target:   "all-user-saved-albums",
				Template: "{artists}/{album}/{artist} - {title}.{output-ext}",
				Args:     []string{"--user-auth"},
			},
		},
		Formats: []string{"mp3", "flac", "ogg", "opus", "m4a", "wav"},
		Qualities: []string{
			"auto", "disable", "8k", "16k", "24k", "32k", "40k", "48k", "64k",
			"80k", "96k", "112k", "128k", "160k", "192k", "224k", "256k", "320k",
		},
		RetryDelay:      10,
		DownloadTimeout: 120,
	}
}

// Ytdlp returns the profile for the yt-dlp media extractor.
func Ytdlp() *Profile {
	return &Profile{
		Name:         YTDLP,
		Binary:       "yt-dlp",
		DownloadArgs: []string{"-x"},
		OutputFlag:   "-o",
		FormatFlag:   "--audio-format",
		QualityFlag:  "--audio-quality",
		CookieFlag:   "--cookies",
		CommonArgs: []string{
			"--no-overwrites", "--add-metadata", "--embed-thumbnail",
			"--newline", "--progress", "--no-warnings",
			"--retries", "10", "--fragment-retries", "10",
		},
		ValidateArgs: []string{"--skip-download", "--print-json", "--no-warnings"},
		SearchPrefix: "ytsearch1:",
		VersionArgs:  []string{"--version"},
		Env:          []string{"PYTHONUNBUFFERED=1"},
		Templates: map[string]string{
			model.KindTrack.String():       "%(artist)s - %(title)s.%(ext)s",
			model.KindAlbum.String():       "%(artist)s/%(album)s/%(artist)s - %(title)s.%(ext)s",
			model.KindPlaylist.String():    "%(playlist)s/%(artist)s - %(title)s.%(ext)s",
			model.KindArtist.String():      "%(channel)s/%(artist)s - %(title)s.%(ext)s",
			model.KindSearchQuery.String(): "%(artist)s - %(title)s.%(ext)s",
		},
		KindArgs: map[string][]string{
			model.KindArtist.String(): {"--yes-playlist", "--download-archive", "downloaded_channels.txt"},
		},
		Formats: []string{"mp3", "m4a", "flac", "opus", "ogg", "wav", "aac", "alac", "vorbis", "best"},
		Qualities: []string{
			"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10",
			"64k", "96k", "128k", "160k", "192k", "256k", "320k",
		},
		RetryDelay:      5,
		DownloadTimeout: 300,
	}
}
