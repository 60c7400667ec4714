// Package profile describes the external downloader tools and builds requests for them.
package profile

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/jmagar/tunefetch/internal/model"
)

// Collection is a named user library target such as liked songs.
type Collection struct {
	Target   string   `yaml:"target"`
	Template string   `yaml:"template"`
	Args     []string `yaml:"args,omitempty"`
}

// Profile holds everything that differs between downloader tools. The core
// invoker, classifier and retry loop are shared.
type Profile struct {
	Name   string `yaml:"name"`
	Binary string `yaml:"binary"`
	// DownloadArgs lead the argument vector, e.g. a "download" subcommand or "-x".
	DownloadArgs []string `yaml:"download_args,omitempty"`
	// TargetFirst places the target right after DownloadArgs instead of last.
	TargetFirst bool   `yaml:"target_first,omitempty"`
	OutputFlag  string `yaml:"output_flag"`
	FormatFlag  string `yaml:"format_flag"`
	QualityFlag string `yaml:"quality_flag"`
	CookieFlag  string `yaml:"cookie_flag,omitempty"`
	TokenFlag   string `yaml:"token_flag,omitempty"`
	// CommonArgs are appended to every download.
	CommonArgs   []string `yaml:"common_args,omitempty"`
	ValidateArgs []string `yaml:"validate_args"`
	SearchPrefix string   `yaml:"search_prefix,omitempty"`
	VersionArgs  []string `yaml:"version_args,omitempty"`
	Env          []string `yaml:"env,omitempty"`
	// Templates and KindArgs are keyed by model.Kind names.
	Templates   map[string]string     `yaml:"templates"`
	KindArgs    map[string][]string   `yaml:"kind_args,omitempty"`
	Collections map[string]Collection `yaml:"collections,omitempty"`
	Formats     []string              `yaml:"formats,omitempty"`
	Qualities   []string              `yaml:"qualities,omitempty"`

	RetryDelay      int `yaml:"retry_delay,omitempty"`
	DownloadTimeout int `yaml:"download_timeout,omitempty"`
}

// Template returns the output template for kind, falling back to the track template.
func (p *Profile) Template(kind model.Kind) string {
	if t, ok := p.Templates[kind.String()]; ok && t != "" {
		return t
	}
	return p.Templates[model.KindTrack.String()]
}

// CollectionNames lists the configured user collections in sorted order.
func (p *Profile) CollectionNames() []string {
	names := lo.Keys(p.Collections)
	sort.Strings(names)
	return names
}

// Validate reports missing required fields.
func (p *Profile) Validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("profile has no name")
	case p.Binary == "":
		return fmt.Errorf("profile %q: binary is required", p.Name)
	case p.OutputFlag == "":
		return fmt.Errorf("profile %q: output_flag is required", p.Name)
	case p.Templates[model.KindTrack.String()] == "":
		return fmt.Errorf("profile %q: a track template is required", p.Name)
	}
	return nil
}

// SupportsFormat reports whether format is accepted. An empty list accepts anything.
func (p *Profile) SupportsFormat(format string) bool {
	return len(p.Formats) == 0 || lo.Contains(p.Formats, strings.ToLower(format))
}

// SupportsQuality reports whether quality is accepted. An empty list accepts anything.
func (p *Profile) SupportsQuality(quality string) bool {
	return len(p.Qualities) == 0 || lo.Contains(p.Qualities, strings.ToLower(quality))
}

// Build constructs the request for target. For KindSearchQuery the search
// prefix is applied; for KindUserCollection target names a collection.
func (p *Profile) Build(kind model.Kind, target, outputDir string) (model.DownloadRequest, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return model.DownloadRequest{}, fmt.Errorf("empty %s target", kind)
	}
	req := model.DownloadRequest{
		Target:         target,
		Kind:           kind,
		OutputTemplate: joinTemplate(outputDir, p.Template(kind)),
		ExtraArgs:      append([]string(nil), p.KindArgs[kind.String()]...),
	}
	switch kind {
	case model.KindSearchQuery:
		req.Target = p.SearchPrefix + target
	case model.KindUserCollection:
		c, ok := p.Collections[target]
		if !ok {
			return model.DownloadRequest{}, fmt.Errorf("profile %q has no collection %q (have: %s)",
				p.Name, target, strings.Join(p.CollectionNames(), ", "))
		}
		req.Target = c.Target
		if c.Template != "" {
			req.OutputTemplate = joinTemplate(outputDir, c.Template)
		}
		req.ExtraArgs = append(req.ExtraArgs, c.Args...)
	}
	return req, nil
}

// ForBatchLine builds the request for a manifest target. The kind is sniffed
// from the target text.
func (p *Profile) ForBatchLine(target, outputDir string) (model.DownloadRequest, error) {
	return p.Build(SniffKind(target), target, outputDir)
}

// SniffKind picks a kind by plain substring containment: "playlist" wins over
// "album", anything else is a track.
func SniffKind(target string) model.Kind {
	lowered := strings.ToLower(target)
	switch {
	case strings.Contains(lowered, "playlist"):
		return model.KindPlaylist
	case strings.Contains(lowered, "album"):
		return model.KindAlbum
	default:
		return model.KindTrack
	}
}

func joinTemplate(dir, tmpl string) string {
	if dir == "" || filepath.IsAbs(tmpl) {
		return tmpl
	}
	return filepath.Join(dir, tmpl)
}
