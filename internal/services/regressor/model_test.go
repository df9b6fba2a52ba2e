package regressor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/internal/domain/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadLinearJSON(t *testing.T) {
	path := writeFile(t, "model.json", `{
		"name": "komoditas-v1",
		"type": "linear",
		"features": ["price_lag1", "price_lag2"],
		"intercept": 0,
		"coefficients": [0.5, 0.5]
	}`)

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "komoditas-v1", m.Version())
	assert.Equal(t, []string{"price_lag1", "price_lag2"}, m.Features())

	out, err := m.Predict([][]float64{{100, 120}, {10, 20}})
	require.NoError(t, err)
	assert.InDelta(t, 110.0, out[0], 1e-9)
	assert.InDelta(t, 15.0, out[1], 1e-9)
}

func TestLoadForestYAML(t *testing.T) {
	path := writeFile(t, "forest.yaml", `
type: random_forest
features: [price_lag1, price_lag2]
trees:
  - nodes:
      - {feature: 0, threshold: 100, left: 1, right: 2}
      - {leaf: true, value: 90}
      - {leaf: true, value: 130}
  - nodes:
      - {feature: 1, threshold: 50, left: 1, right: 2}
      - {leaf: true, value: 60}
      - {leaf: true, value: 110}
`)

	m, err := Load(path, WithVersion("rf-2"))
	require.NoError(t, err)
	assert.Equal(t, "rf-2", m.Version())
	assert.Equal(t, TypeRandomForest, m.Type())

	out, err := m.Predict([][]float64{{100, 120}, {101, 10}})
	require.NoError(t, err)
	// row 0: tree0 -> 90, tree1 -> 110
	assert.InDelta(t, 100.0, out[0], 1e-9)
	// row 1: tree0 -> 130, tree1 -> 60
	assert.InDelta(t, 95.0, out[1], 1e-9)
}

func TestLoadDefaultsVersionToFileName(t *testing.T) {
	path := writeFile(t, "melb-v1.json", `{"type":"linear","features":["Rooms"],"coefficients":[2]}`)
	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "melb-v1", m.Version())
}

func TestLoadFailures(t *testing.T) {
	cases := map[string]string{
		"corrupt":            `{"type":`,
		"no type":            `{"features":["a"],"coefficients":[1]}`,
		"unknown type":       `{"type":"svm","features":["a"]}`,
		"no features":        `{"type":"linear","features":[],"coefficients":[]}`,
		"duplicate features": `{"type":"linear","features":["a","a"],"coefficients":[1,1]}`,
		"coef mismatch":      `{"type":"linear","features":["a","b"],"coefficients":[1]}`,
		"backward child":     `{"type":"decision_tree","features":["a"],"trees":[{"nodes":[{"feature":0,"threshold":1,"left":0,"right":1},{"leaf":true}]}]}`,
		"child out of range": `{"type":"decision_tree","features":["a"],"trees":[{"nodes":[{"feature":0,"threshold":1,"left":1,"right":5},{"leaf":true}]}]}`,
		"feature range":      `{"type":"decision_tree","features":["a"],"trees":[{"nodes":[{"feature":3,"threshold":1,"left":1,"right":2},{"leaf":true},{"leaf":true}]}]}`,
		"two trees":          `{"type":"decision_tree","features":["a"],"trees":[{"nodes":[{"leaf":true}]},{"nodes":[{"leaf":true}]}]}`,
		"empty forest":       `{"type":"random_forest","features":["a"]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "m.json", body))
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrModelLoad)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	var le *errs.ModelLoadError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExpectedFeaturesMustMatch(t *testing.T) {
	a := Artifact{Type: TypeLinear, Features: []string{"price_lag1", "price_lag2"}, Coefficients: []float64{1, 1}}

	_, err := New(a, WithExpectedFeatures([]string{"price_lag2", "price_lag1"}))
	assert.Error(t, err)

	_, err = New(a, WithExpectedFeatures([]string{"price_lag1", "price_lag2"}))
	assert.NoError(t, err)
}

func TestPredictRejectsWrongWidth(t *testing.T) {
	m, err := New(Artifact{Type: TypeLinear, Features: []string{"a", "b"}, Coefficients: []float64{1, 1}})
	require.NoError(t, err)

	_, err = m.Predict([][]float64{{1}})
	assert.Error(t, err)
}

func TestPredictIsDeterministic(t *testing.T) {
	m, err := New(Artifact{Type: TypeLinear, Features: []string{"a", "b"}, Intercept: 3, Coefficients: []float64{0.25, -1.5}})
	require.NoError(t, err)

	first, err := m.Predict([][]float64{{7.5, 2}})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := m.Predict([][]float64{{7.5, 2}})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
