package collect

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type SourceType string

const (
	SourceContainer SourceType = "container"
	SourceFile      SourceType = "file"
	SourceCommand   SourceType = "command"
	SourceSystem    SourceType = "system"
)

// LogSource describes one place logs are collected from. Fields that do not
// apply to the source's type are ignored.
type LogSource struct {
	Type          SourceType `yaml:"type" json:"type"`
	Name          string     `yaml:"name" json:"name"`
	Output        string     `yaml:"output,omitempty" json:"output,omitempty"`
	Exclude       bool       `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	SkipRedaction bool       `yaml:"skip_redaction,omitempty" json:"skip_redaction,omitempty"`

	ContainerName string `yaml:"container_name,omitempty" json:"container_name,omitempty"`
	Lines         int    `yaml:"lines,omitempty" json:"lines,omitempty"`
	Path          string `yaml:"path,omitempty" json:"path,omitempty"`
	Command       string `yaml:"command,omitempty" json:"command,omitempty"`
	// Timeout is in seconds.
	Timeout int `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// SourceSpec is the document form of a source list. A bare YAML sequence of
// sources is accepted as well.
type SourceSpec struct {
	Sources []LogSource `yaml:"sources"`
}

// LoadSourceSpec parses and validates a source list.
func LoadSourceSpec(data []byte) ([]LogSource, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse source spec")
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("source spec is empty")
	}

	var sources []LogSource
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&sources); err != nil {
			return nil, errors.Wrap(err, "failed to decode sources")
		}
	case yaml.MappingNode:
		spec := SourceSpec{}
		if err := root.Decode(&spec); err != nil {
			return nil, errors.Wrap(err, "failed to decode sources")
		}
		sources = spec.Sources
	default:
		return nil, errors.New("source spec must be a list or a mapping with a sources key")
	}

	seen := map[string]bool{}
	for i := range sources {
		if err := sources[i].validate(); err != nil {
			return nil, errors.Wrapf(err, "source %d", i)
		}
		if seen[sources[i].Name] {
			return nil, errors.Errorf("duplicate source name %q", sources[i].Name)
		}
		seen[sources[i].Name] = true
	}

	return sources, nil
}

func (s *LogSource) validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Lines < 0 {
		return errors.Errorf("%s: lines must not be negative", s.Name)
	}
	if s.Timeout < 0 {
		return errors.Errorf("%s: timeout must not be negative", s.Name)
	}
	if s.Output != "" && !filepath.IsLocal(s.Output) {
		return errors.Errorf("%s: output %q must be a relative path inside the log directory", s.Name, s.Output)
	}

	switch s.Type {
	case SourceContainer, SourceSystem:
	case SourceFile:
		if s.Path == "" {
			return errors.Errorf("%s: path is required for file sources", s.Name)
		}
	case SourceCommand:
		if strings.TrimSpace(s.Command) == "" {
			return errors.Errorf("%s: command is required for command sources", s.Name)
		}
	default:
		return errors.Errorf("%s: unknown source type %q", s.Name, s.Type)
	}

	return nil
}

func (s *LogSource) title(def string) string {
	if s.Name == "" {
		return def
	}
	return fmt.Sprintf("%s (%s)", def, s.Name)
}
