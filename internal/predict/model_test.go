package predict

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonArtifact = `{
  "version": "2026-03",
  "trained_at": "2026-03-14T09:00:00Z",
  "feature_names": ["flood_zone","in_conservation_area","in_greenbelt","in_article4_zone","local_approval_rate","avg_decision_time_days","similar_applications_nearby","avg_price_per_m2","price_trend_24m","epc_score"],
  "intercept": 0.25,
  "coefficients": [-0.4, -0.3, -0.5, -0.2, 2.0, -0.01, 0.0, 0.0001, 1.5, 0.05]
}`

func writeArtifact(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadModel_Missing(t *testing.T) {
	m, err := LoadModel(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = LoadModel("")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestLoadModel_JSON(t *testing.T) {
	m, err := LoadModel(writeArtifact(t, "model.json", jsonArtifact))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "2026-03", m.Version)
	assert.InDelta(t, 0.25, m.Intercept, 1e-12)
	assert.Len(t, m.Coefficients, NumFeatures)
}

func TestLoadModel_YAMLWithScaling(t *testing.T) {
	body := `
version: v2
intercept: 0
coefficients: [1, 0, 0, 0, 0, 0, 0, 0, 0, 0]
mean: [2, 0, 0, 0, 0, 0, 0, 0, 0, 0]
scale: [0.5, 1, 1, 1, 1, 1, 1, 1, 1, 1]
`
	m, err := LoadModel(writeArtifact(t, "model.yaml", body))
	require.NoError(t, err)

	// (3 - 2) / 0.5 = 2 -> sigmoid(2)
	p, err := m.PositiveProbability([]float64{3, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-2)), p, 1e-12)
}

func TestLoadModel_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"corrupt", `{"coefficients": [1, 2`, "parse model"},
		{"short coefficients", `{"coefficients": [1, 2, 3]}`, "expected 10 coefficients"},
		{"wrong feature order", `{"feature_names":["a","b","c","d","e","f","g","h","i","j"],"coefficients":[0,0,0,0,0,0,0,0,0,0]}`, "feature 0"},
		{"zero scale", `{"coefficients":[0,0,0,0,0,0,0,0,0,0],"scale":[1,1,1,0,1,1,1,1,1,1]}`, "scale for in_article4_zone is zero"},
		{"short mean", `{"coefficients":[0,0,0,0,0,0,0,0,0,0],"mean":[1]}`, "expected 10 means"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadModel(writeArtifact(t, "model.json", tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLogisticModel_WrongVectorLength(t *testing.T) {
	m := &LogisticModel{Coefficients: make([]float64, NumFeatures)}
	_, err := m.PositiveProbability([]float64{1, 2})
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	p, err := FromFile(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.False(t, p.ModelLoaded())

	p, err = FromFile(writeArtifact(t, "model.json", jsonArtifact))
	require.NoError(t, err)
	assert.True(t, p.ModelLoaded())

	_, err = FromFile(writeArtifact(t, "bad.json", `{`))
	assert.Error(t, err)
}
