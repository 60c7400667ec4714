package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmagar/tunefetch/internal/model"
)

// Registry maps profile names to profiles.
type Registry struct {
	profiles map[string]*Profile
}

// NewRegistry returns a registry holding the built-in profiles.
func NewRegistry() *Registry {
	r := &Registry{profiles: map[string]*Profile{}}
	r.Add(Spotdl())
	r.Add(Ytdlp())
	return r
}

// Add registers p, replacing any profile with the same name.
func (r *Registry) Add(p *Profile) {
	r.profiles[strings.ToLower(p.Name)] = p
}

// Get looks up a profile by name.
func (r *Registry) Get(name string) (*Profile, error) {
	if p, ok := r.profiles[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w %q (have: %s)", model.ErrUnknownProfile, name, strings.Join(r.Names(), ", "))
}

// Names lists registered profiles in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// profileFile is the YAML layout of a custom profiles file.
type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadFile reads custom profiles from a YAML file into the registry. Each entry
// must be complete. A missing file is not an error.
func (r *Registry) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read profiles %s: %w", path, err)
	}
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse profiles %s: %w", path, err)
	}
	for i := range file.Profiles {
		p := file.Profiles[i]
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profiles %s: %w", path, err)
		}
		r.Add(&p)
	}
	return nil
}
