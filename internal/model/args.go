package model

// ArgsDescriptionFunc is set by package main to provide the help banner without
// model depending on ui.
var ArgsDescriptionFunc func() string

// Args holds CLI arguments parsed by go-arg. Numeric overrides default to -1 so an
// explicit zero can be told apart from "not given".
type Args struct {
	ConfigPath string `arg:"-c,--config" help:"Path to the JSON config file (default: config/<profile>.json)."`
	Profile    string `arg:"-p,--profile" help:"Downloader profile: spotdl, yt-dlp or a custom profile name."`
	Output     string `arg:"-o,--output" help:"Output directory. Created if it doesn't already exist."`
	Quality    string `arg:"-q,--quality" help:"Audio quality or bitrate, e.g. 320k, auto, 0."`
	Format     string `arg:"-f,--format" help:"Audio format: mp3, m4a, flac, opus, ogg or wav."`
	Retries    int    `arg:"-r,--retries" default:"-1" help:"Maximum attempts per item."`
	RetryDelay int    `arg:"--retry-delay" default:"-1" help:"Seconds to wait between attempts."`
	Timeout    int    `arg:"-t,--timeout" default:"-1" help:"Download timeout in seconds."`
	Cookies    bool   `arg:"--cookies" help:"Pass the configured cookie file / auth token to the downloader."`
	NoCookies  bool   `arg:"--no-cookies" help:"Do not pass cookies or auth token for this run."`
	NoValidate bool   `arg:"--no-validate" help:"Skip the metadata pre-check before downloading."`
	Yes        bool   `arg:"-y,--yes" help:"Answer yes to every prompt."`
	Verbose    bool   `arg:"-v,--verbose" help:"Mirror outcome log records to stderr."`

	Track    *TargetCmd   `arg:"subcommand:track" help:"Download a single track."`
	Album    *TargetCmd   `arg:"subcommand:album" help:"Download an album."`
	Playlist *TargetCmd   `arg:"subcommand:playlist" help:"Download a playlist."`
	Artist   *TargetCmd   `arg:"subcommand:artist" help:"Download an artist discography or channel."`
	Search   *SearchCmd   `arg:"subcommand:search" help:"Search and download the best match."`
	Saved    *SavedCmd    `arg:"subcommand:saved" help:"Download a user collection (liked, playlists, albums)."`
	Batch    *BatchCmd    `arg:"subcommand:batch" help:"Process a manifest file of targets."`
	Validate *ValidateCmd `arg:"subcommand:validate" help:"Check targets without downloading."`
	Import   *ImportCmd   `arg:"subcommand:import" help:"Append the entries of an M3U/M3U8 playlist to a manifest."`
	Config   *ConfigCmd   `arg:"subcommand:config" help:"Show, save or reset the configuration."`
	Check    *CheckCmd    `arg:"subcommand:check" help:"Check that the downloader tools are installed."`
	Cleanup  *CleanupCmd  `arg:"subcommand:cleanup" help:"Remove empty directories under the output directory."`

	Completion *CompletionCmd `arg:"subcommand:completion" help:"Print a shell completion script."`
}

// TargetCmd takes one URL or identifier.
type TargetCmd struct {
	URL string `arg:"positional,required" help:"URL or identifier to download"`
}

// SearchCmd takes a free-text query.
type SearchCmd struct {
	Query []string `arg:"positional,required" help:"search terms"`
}

// SavedCmd selects a user collection.
type SavedCmd struct {
	Collection string `arg:"positional" default:"liked" help:"liked, playlists or albums"`
}

// BatchCmd runs a manifest.
type BatchCmd struct {
	File     string `arg:"positional" help:"manifest file (default: manifest_path from config)"`
	Validate string `arg:"--validate" default:"ask" help:"ask, available, all or skip"`
}

// ValidateCmd checks targets only.
type ValidateCmd struct {
	Targets []string `arg:"positional,required" help:"targets to check"`
}

// ImportCmd converts a playlist file into manifest lines.
type ImportCmd struct {
	Playlist string `arg:"positional,required" help:"M3U or M3U8 playlist file"`
	Manifest string `arg:"-m,--manifest" help:"manifest to append to (default: manifest_path from config)"`
}

// ConfigCmd manages the config file.
type ConfigCmd struct {
	Action string `arg:"positional" default:"show" help:"show, save or reset"`
}

// CheckCmd has no arguments.
type CheckCmd struct{}

// CleanupCmd removes empty directories.
type CleanupCmd struct {
	DryRun bool `arg:"--dry-run" help:"List directories without removing them."`
}

// CompletionCmd selects the shell.
type CompletionCmd struct {
	Shell string `arg:"positional" help:"bash, zsh or fish"`
}

// Description provides custom help text for go-arg.
func (Args) Description() string {
	if ArgsDescriptionFunc != nil {
		return ArgsDescriptionFunc()
	}
	return ""
}
