package regressor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/errs"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/service"

	"gopkg.in/yaml.v3"
)

// Model is an immutable fitted regressor. Safe for concurrent use.
type Model struct {
	artifact Artifact
	version  string
}

var _ service.Regressor = (*Model)(nil)

// Option configures Load.
type Option func(*loadConfig)

type loadConfig struct {
	version  string
	features []string
}

// WithVersion overrides the version tag taken from the artifact.
func WithVersion(v string) Option {
	return func(c *loadConfig) { c.version = v }
}

// WithExpectedFeatures makes Load fail unless the artifact layout matches exactly.
func WithExpectedFeatures(names []string) Option {
	return func(c *loadConfig) { c.features = names }
}

// Load reads a JSON or YAML artifact (chosen by extension). Every failure is a
// *errs.ModelLoadError.
func Load(path string, opts ...Option) (*Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.ModelLoadError{Path: path, Err: err}
	}

	var a Artifact
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &a)
	default:
		err = json.Unmarshal(b, &a)
	}
	if err != nil {
		return nil, &errs.ModelLoadError{Path: path, Err: fmt.Errorf("decode: %w", err)}
	}

	if a.Name == "" {
		a.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	m, err := New(a, opts...)
	if err != nil {
		return nil, &errs.ModelLoadError{Path: path, Err: err}
	}
	return m, nil
}

// New builds a model from an in-memory artifact.
func New(a Artifact, opts ...Option) (*Model, error) {
	cfg := &loadConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}
	if len(cfg.features) > 0 && !slices.Equal(cfg.features, a.Features) {
		return nil, fmt.Errorf("artifact features %v do not match configured %v", a.Features, cfg.features)
	}

	version := cfg.version
	if version == "" {
		version = a.Name
	}
	if version == "" {
		version = "unversioned"
	}
	a.Features = slices.Clone(a.Features)
	return &Model{artifact: a, version: version}, nil
}

func (m *Model) Features() []string { return slices.Clone(m.artifact.Features) }

func (m *Model) Version() string { return m.version }

func (m *Model) Type() string { return m.artifact.Type }

// Predict returns one value per row. Rows must match the feature layout.
func (m *Model) Predict(rows [][]float64) ([]float64, error) {
	width := len(m.artifact.Features)
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d values, model expects %d", i, len(row), width)
		}
		out[i] = m.predictRow(row)
	}
	return out, nil
}

func (m *Model) predictRow(row []float64) float64 {
	a := &m.artifact
	switch a.Type {
	case TypeLinear:
		y := a.Intercept
		for j, c := range a.Coefficients {
			y += c * row[j]
		}
		return y
	default:
		var sum float64
		for i := range a.Trees {
			sum += a.Trees[i].predict(row)
		}
		return sum / float64(len(a.Trees))
	}
}
