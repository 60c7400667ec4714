package model

import "time"

// Config holds the downloader settings shared across requests. JSON keys match the
// files written by earlier releases so existing configs keep loading.
type Config struct {
	Profile           string `json:"profile"`
	ProfilesFile      string `json:"profiles_file,omitempty"`
	OutputDirectory   string `json:"output_directory"`
	AudioQuality      string `json:"audio_quality"`
	AudioFormat       string `json:"audio_format"`
	MaxRetries        int    `json:"max_retries"`
	RetryDelay        int    `json:"retry_delay"`
	DownloadTimeout   int    `json:"download_timeout"`
	ValidateTimeout   int    `json:"validate_timeout"`
	CallsPerMinute    int    `json:"calls_per_minute"`
	UseCookies        bool   `json:"use_cookies"`
	CookieFile        string `json:"cookie_file,omitempty"`
	AuthToken         string `json:"auth_token,omitempty"`
	ManifestPath      string `json:"manifest_path"`
	LogDirectory      string `json:"log_directory"`
	RcloneEnabled     bool   `json:"rclone_enabled,omitempty"`
	RcloneRemote      string `json:"rclone_remote,omitempty"`
	RclonePath        string `json:"rclone_path,omitempty"`
	RcloneTransfers   int    `json:"rclone_transfers,omitempty"`
	DeleteAfterUpload bool   `json:"delete_after_upload,omitempty"`
	GotifyURL         string `json:"gotify_url,omitempty"`
	GotifyToken       string `json:"gotify_token,omitempty"`
}

// RetryDelayDuration converts the retry delay in seconds.
func (c *Config) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay) * time.Second
}

// DownloadTimeoutDuration converts the download timeout in seconds.
func (c *Config) DownloadTimeoutDuration() time.Duration {
	return time.Duration(c.DownloadTimeout) * time.Second
}

// ValidateTimeoutDuration converts the validation timeout in seconds.
func (c *Config) ValidateTimeoutDuration() time.Duration {
	return time.Duration(c.ValidateTimeout) * time.Second
}

// Attempts returns the retry budget, never less than one.
func (c *Config) Attempts() int {
	if c.MaxRetries < 1 {
		return 1
	}
	return c.MaxRetries
}
