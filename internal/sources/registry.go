package sources

import (
	"embed"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Source is a configured entry point into the remote directory. Key is the
// sentinel page key the API exposes; URL is the canonical root fetched for it.
type Source struct {
	Key   string `yaml:"key" json:"key"`
	Title string `yaml:"title" json:"title"`
	URL   string `yaml:"url" json:"url"`
}

func (s Source) validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Key, validation.Required, validation.Length(1, 64)),
		validation.Field(&s.Title, validation.Required),
		validation.Field(&s.URL, validation.Required, is.URL),
	)
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// Registry holds the configured directory roots, in file order.
type Registry struct {
	sources []Source
	byKey   map[string]Source
}

// NewRegistry loads the embedded source configuration.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/sources.yaml")
	if err != nil {
		return nil, fmt.Errorf("read sources config: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal sources config: %w", err)
	}

	r := &Registry{byKey: make(map[string]Source, len(file.Sources))}
	for _, src := range file.Sources {
		if err := src.validate(); err != nil {
			return nil, fmt.Errorf("source %q: %w", src.Key, err)
		}
		if _, exists := r.byKey[src.Key]; exists {
			return nil, fmt.Errorf("duplicate source key %q", src.Key)
		}
		r.byKey[src.Key] = src
		r.sources = append(r.sources, src)
	}

	if len(r.sources) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}

	return r, nil
}

// List returns all sources in configuration order.
func (r *Registry) List() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Get returns the source registered under key.
func (r *Registry) Get(key string) (Source, bool) {
	src, ok := r.byKey[key]
	return src, ok
}

// Keys returns the sentinel page keys in configuration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.sources))
	for i, src := range r.sources {
		keys[i] = src.Key
	}
	return keys
}
