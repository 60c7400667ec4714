// Package config loads, overrides and saves the downloader settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"

	"github.com/jmagar/tunefetch/internal/model"
	"github.com/jmagar/tunefetch/internal/profile"
	"github.com/jmagar/tunefetch/internal/ui"
)

// Environment variables read on top of the config file.
const (
	EnvProfile    = "TUNEFETCH_PROFILE"
	EnvAuthToken  = "TUNEFETCH_AUTH_TOKEN"
	EnvCookieFile = "TUNEFETCH_COOKIE_FILE"
)

// Built-in defaults shared by every profile.
const (
	DefaultOutputDirectory = "Albums"
	DefaultAudioQuality    = "320k"
	DefaultAudioFormat     = "mp3"
	DefaultMaxRetries      = 3
	DefaultValidateTimeout = 30
	DefaultCallsPerMinute  = 30
	DefaultLogDirectory    = "log"
	DefaultRetryDelay      = 10
	DefaultDownloadTimeout = 120
)

// Session is the resolved configuration for one run.
type Session struct {
	Config   *model.Config
	Path     string
	Profile  *profile.Profile
	Registry *profile.Registry
	// Created is true when the config file did not exist and was written from defaults.
	Created bool

	// Secret values as they stood in the file, before the environment applied.
	fileAuthToken  string
	fileCookieFile string
}

// Save writes the session config back to Path. Secrets that came from the
// environment are not written; the file keeps its own values for them.
func (s *Session) Save() error {
	cfg := *s.Config
	cfg.AuthToken = s.fileAuthToken
	cfg.CookieFile = s.fileCookieFile
	return Save(s.Path, &cfg)
}

// Defaults returns the built-in config for a profile. p may be nil for a
// profile that is only defined in a profiles file.
func Defaults(name string, p *profile.Profile) *model.Config {
	cfg := &model.Config{
		Profile:         name,
		OutputDirectory: DefaultOutputDirectory,
		AudioQuality:    DefaultAudioQuality,
		AudioFormat:     DefaultAudioFormat,
		MaxRetries:      DefaultMaxRetries,
		RetryDelay:      DefaultRetryDelay,
		DownloadTimeout: DefaultDownloadTimeout,
		ValidateTimeout: DefaultValidateTimeout,
		CallsPerMinute:  DefaultCallsPerMinute,
		ManifestPath:    filepath.Join("links", name+"_links.txt"),
		LogDirectory:    DefaultLogDirectory,
		RcloneTransfers: 4,
	}
	if p != nil {
		if p.RetryDelay > 0 {
			cfg.RetryDelay = p.RetryDelay
		}
		if p.DownloadTimeout > 0 {
			cfg.DownloadTimeout = p.DownloadTimeout
		}
	}
	return cfg
}

// DefaultPath is where a profile's config lives when --config is not given.
func DefaultPath(profileName string) string {
	return filepath.Join("config", profileName+".json")
}

// Load reads path and merges it over defaults: missing keys keep their default
// and unknown keys are ignored. A missing file is created from defaults.
func Load(path string, defaults *model.Config) (cfg *model.Config, created bool, err error) {
	merged := *defaults
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := Save(path, &merged); err != nil {
			return nil, false, err
		}
		return &merged, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, false, fmt.Errorf("failed to parse config at %s: %w", path, err)
	}
	checkPermissions(path)
	return &merged, false, nil
}

// checkPermissions tightens a config file readable by others. The file may hold
// an auth token.
func checkPermissions(path string) {
	info, err := os.Stat(path)
	if err != nil || info.Mode().Perm()&0077 == 0 || runtime.GOOS == "windows" {
		return
	}
	if chmodErr := os.Chmod(path, 0600); chmodErr != nil {
		ui.PrintWarning(fmt.Sprintf("Config file %s has insecure permissions (%04o); fix manually: chmod 600 %s",
			path, info.Mode().Perm(), path))
		return
	}
	ui.PrintWarning(fmt.Sprintf("Config file %s had insecure permissions (%04o); applied chmod 600",
		path, info.Mode().Perm()))
}

// Save writes cfg as indented JSON with mode 0600, creating the parent directory.
func Save(path string, cfg *model.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", path, err)
	}
	return nil
}

// LoadEnv reads a .env file into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// ApplyEnv copies secrets from the environment over the file values.
func ApplyEnv(cfg *model.Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAuthToken)); v != "" {
		cfg.AuthToken = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCookieFile)); v != "" {
		cfg.CookieFile = v
	}
}

// ApplyArgs applies per-session CLI overrides. They are never saved unless the
// user runs "config save".
func ApplyArgs(cfg *model.Config, args *model.Args) {
	if args.Output != "" {
		cfg.OutputDirectory = strings.TrimSpace(args.Output)
	}
	if args.Quality != "" {
		cfg.AudioQuality = strings.ToLower(strings.TrimSpace(args.Quality))
	}
	if args.Format != "" {
		cfg.AudioFormat = strings.ToLower(strings.TrimSpace(args.Format))
	}
	if args.Retries != -1 {
		cfg.MaxRetries = args.Retries
	}
	if args.RetryDelay != -1 {
		cfg.RetryDelay = args.RetryDelay
	}
	if args.Timeout != -1 {
		cfg.DownloadTimeout = args.Timeout
	}
	if args.Cookies {
		cfg.UseCookies = true
	}
	if args.NoCookies {
		cfg.UseCookies = false
	}
	cfg.OutputDirectory = strings.TrimSpace(cfg.OutputDirectory)
	cfg.RclonePath = strings.TrimSpace(cfg.RclonePath)
}

// Validate checks cfg against the limits of profile p.
func Validate(cfg *model.Config, p *profile.Profile) error {
	if cfg.OutputDirectory == "" {
		return errors.New("output_directory must not be empty")
	}
	if !p.SupportsFormat(cfg.AudioFormat) {
		return fmt.Errorf("audio format %q is not supported by %s (use one of: %s)",
			cfg.AudioFormat, p.Name, strings.Join(p.Formats, ", "))
	}
	if !p.SupportsQuality(cfg.AudioQuality) {
		return fmt.Errorf("audio quality %q is not supported by %s (use one of: %s)",
			cfg.AudioQuality, p.Name, strings.Join(p.Qualities, ", "))
	}
	if cfg.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative, got %d", cfg.RetryDelay)
	}
	if cfg.DownloadTimeout <= 0 {
		return fmt.Errorf("download_timeout must be positive, got %d", cfg.DownloadTimeout)
	}
	if cfg.ValidateTimeout <= 0 {
		return fmt.Errorf("validate_timeout must be positive, got %d", cfg.ValidateTimeout)
	}
	if cfg.CallsPerMinute <= 0 {
		return fmt.Errorf("calls_per_minute must be positive, got %d", cfg.CallsPerMinute)
	}
	if cfg.RcloneEnabled && (cfg.RcloneRemote == "" || cfg.RclonePath == "") {
		return errors.New("rclone_enabled requires rclone_remote and rclone_path")
	}
	return nil
}

// Resolve builds the session for args: .env, then the profile's config file
// merged over defaults, custom profiles, env secrets and finally CLI flags.
func Resolve(args *model.Args) (*Session, error) {
	if err := LoadEnv(".env"); err != nil {
		return nil, err
	}
	reg := profile.NewRegistry()
	name := firstNonEmpty(args.Profile, os.Getenv(EnvProfile), profile.SpotDL)
	path := args.ConfigPath
	if path == "" {
		path = DefaultPath(name)
	}

	base, _ := reg.Get(name)
	cfg, created, err := Load(path, Defaults(name, base))
	if err != nil {
		return nil, err
	}
	if args.Profile == "" && cfg.Profile != "" {
		name = cfg.Profile
	}
	cfg.Profile = name

	if err := reg.LoadFile(cfg.ProfilesFile); err != nil {
		return nil, err
	}
	p, err := reg.Get(name)
	if err != nil {
		return nil, err
	}

	fileToken, fileCookie := cfg.AuthToken, cfg.CookieFile
	ApplyEnv(cfg)
	ApplyArgs(cfg, args)
	if err := Validate(cfg, p); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &Session{
		Config:         cfg,
		Path:           path,
		Profile:        p,
		Registry:       reg,
		Created:        created,
		fileAuthToken:  fileToken,
		fileCookieFile: fileCookie,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ParseArgs parses CLI arguments using go-arg.
func ParseArgs() *model.Args {
	var args model.Args
	arg.MustParse(&args)
	return &args
}

// ParseArgsFrom parses argv without exiting, for tests and embedding.
func ParseArgsFrom(argv []string) (*model.Args, *arg.Parser, error) {
	var args model.Args
	parser, err := arg.NewParser(arg.Config{Program: "tunefetch"}, &args)
	if err != nil {
		return nil, nil, err
	}
	if err := parser.Parse(argv); err != nil {
		return &args, parser, err
	}
	return &args, parser, nil
}
