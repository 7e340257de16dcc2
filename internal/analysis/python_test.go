package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `import math
from collections import Counter

class Greeter:
    def greet(self, name):
        print("hello", name)

def main():
    g = Greeter()
    for i in range(3):
        g.greet(str(i))
    while False:
        pass

main()
`

func TestAnalyze_Functions(t *testing.T) {
	a := NewPythonAnalyzer()

	result, err := a.Analyze(context.Background(), QueryFunctions, sampleSource)
	require.NoError(t, err)

	functions, ok := result["functions"].([]string)
	require.True(t, ok)
	assert.Contains(t, functions, "greet")
	assert.Contains(t, functions, "main")
	assert.Equal(t, false, result["has_error"])
}

func TestAnalyze_Classes(t *testing.T) {
	a := NewPythonAnalyzer()

	result, err := a.Analyze(context.Background(), QueryClasses, sampleSource)
	require.NoError(t, err)
	assert.Equal(t, []string{"Greeter"}, result["classes"])
}

func TestAnalyze_Calls(t *testing.T) {
	a := NewPythonAnalyzer()

	result, err := a.Analyze(context.Background(), QueryCalls, sampleSource)
	require.NoError(t, err)

	calls, ok := result["calls"].([]string)
	require.True(t, ok)
	assert.Contains(t, calls, "print")
	assert.Contains(t, calls, "main")
	assert.Contains(t, calls, "g.greet")
}

func TestAnalyze_Imports(t *testing.T) {
	a := NewPythonAnalyzer()

	result, err := a.Analyze(context.Background(), QueryImports, sampleSource)
	require.NoError(t, err)

	imports, ok := result["imports"].([]string)
	require.True(t, ok)
	assert.Contains(t, imports, "math")
	assert.Contains(t, imports, "collections")
}

func TestAnalyze_Loops(t *testing.T) {
	a := NewPythonAnalyzer()

	result, err := a.Analyze(context.Background(), QueryLoops, sampleSource)
	require.NoError(t, err)
	assert.Equal(t, 1, result["for"])
	assert.Equal(t, 1, result["while"])
	assert.Equal(t, 2, result["total"])
}

func TestAnalyze_Summary(t *testing.T) {
	a := NewPythonAnalyzer()

	result, err := a.Analyze(context.Background(), QuerySummary, sampleSource)
	require.NoError(t, err)
	assert.Contains(t, result, "functions")
	assert.Contains(t, result, "classes")
	assert.Contains(t, result, "calls")
	assert.Contains(t, result, "imports")
	assert.Equal(t, 2, result["loops"])
}

func TestAnalyze_BrokenSourceStillAnalyzes(t *testing.T) {
	a := NewPythonAnalyzer()

	// Mid-edit learner code: def without a body.
	result, err := a.Analyze(context.Background(), QueryFunctions, "def broken(:\n")
	require.NoError(t, err)
	assert.Equal(t, true, result["has_error"])
}

func TestAnalyze_EmptySource(t *testing.T) {
	a := NewPythonAnalyzer()

	result, err := a.Analyze(context.Background(), QueryFunctions, "")
	require.NoError(t, err)
	assert.Empty(t, result["functions"])
}

func TestAnalyze_UnknownQuery(t *testing.T) {
	a := NewPythonAnalyzer()

	_, err := a.Analyze(context.Background(), "call-graph", sampleSource)
	require.Error(t, err)

	var unknown *ErrUnknownQuery
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "call-graph", unknown.Expression)
}
