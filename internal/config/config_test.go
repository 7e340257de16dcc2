package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecoach/internal/feedback"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const yamlRules = `feedback:
  - id: a
    title: says hi
    when: [edit]
    pattern:
      type: string
      target: code
      expression: hi
    message: m
    severity: info
`

const jsonRules = `{
  "feedback": [
    {
      "id": "a",
      "title": "says hi",
      "when": ["edit"],
      "pattern": {"type": "string", "target": "code", "expression": "hi"},
      "message": "m",
      "severity": "info"
    }
  ]
}`

func TestLoadRules_YAML(t *testing.T) {
	path := writeFile(t, "rules.yaml", yamlRules)

	raw, err := LoadRules(path)
	require.NoError(t, err)
	require.NoError(t, feedback.ValidateConfig(raw))

	cfg := feedback.NormalizeConfig(raw)
	require.Len(t, cfg.Feedback, 1)
	assert.Equal(t, "a", cfg.Feedback[0].ID)
}

func TestLoadRules_JSON(t *testing.T) {
	path := writeFile(t, "rules.json", jsonRules)

	raw, err := LoadRules(path)
	require.NoError(t, err)
	require.NoError(t, feedback.ValidateConfig(raw))

	cfg := feedback.NormalizeConfig(raw)
	require.Len(t, cfg.Feedback, 1)
	assert.Equal(t, feedback.PatternString, cfg.Feedback[0].Pattern.Type)
}

func TestLoadRules_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, "rules.toml", "feedback = []")

	_, err := LoadRules(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, s.AnalysisTimeoutDuration())
	assert.Empty(t, s.HistoryPath)
}

func TestLoadSettings_FromYAML(t *testing.T) {
	path := writeFile(t, "coach.yaml", "analysis_timeout: 500ms\nhistory_path: /tmp/h.db\ndebug: true\n")

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, s.AnalysisTimeoutDuration())
	assert.Equal(t, "/tmp/h.db", s.HistoryPath)
	assert.True(t, s.Debug)
}

func TestSettings_BadTimeoutFallsBack(t *testing.T) {
	s := Settings{AnalysisTimeout: "soon"}
	assert.Equal(t, 2*time.Second, s.AnalysisTimeoutDuration())
}
