package definition

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/aretw0/pathquiz/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

//go:embed learning-path.yaml
var defaultDefinition []byte

// FileLoader reads a quiz definition from a YAML (or JSON) file.
type FileLoader struct {
	Path string
}

// NewFileLoader creates a loader for path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path}
}

// Load implements ports.DefinitionLoader.
func (l *FileLoader) Load(ctx context.Context) (*domain.QuizDefinition, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quiz definition: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Path, err)
	}
	return def, nil
}

// StaticLoader serves an already-built definition.
type StaticLoader struct {
	Definition *domain.QuizDefinition
}

// Load implements ports.DefinitionLoader.
func (l StaticLoader) Load(ctx context.Context) (*domain.QuizDefinition, error) {
	if l.Definition == nil {
		return Default()
	}
	if err := l.Definition.Validate(); err != nil {
		return nil, err
	}
	return l.Definition, nil
}

// DefaultYAML returns the source document of the built-in quiz.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultDefinition...)
}

// Default returns the built-in learning path quiz.
func Default() (*domain.QuizDefinition, error) {
	return Parse(defaultDefinition)
}

// Parse decodes, defaults and validates a definition document.
// JSON documents are accepted since they are valid YAML.
// Unknown keys are rejected so typos in rule names fail loudly.
func Parse(data []byte) (*domain.QuizDefinition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse quiz definition: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidDefinition)
	}

	var def domain.QuizDefinition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      &def,
		TagName:     "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDefinition, err)
	}

	def.ApplyDefaults()
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}
