package matcherexpr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_BooleanExpression(t *testing.T) {
	eval := NewYaegiEvaluator()
	result := map[string]interface{}{"loops": 2}

	v, err := eval.Evaluate(context.Background(), `result["loops"] == 2`, result)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = eval.Evaluate(context.Background(), `result["loops"] == 5`, result)
	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestEvaluate_NonBooleanValuePassedThrough(t *testing.T) {
	eval := NewYaegiEvaluator()
	result := map[string]interface{}{"name": "greet"}

	v, err := eval.Evaluate(context.Background(), `result["name"]`, result)
	require.NoError(t, err)
	assert.Equal(t, "greet", v)
}

func TestEvaluate_LenOverResultValue(t *testing.T) {
	eval := NewYaegiEvaluator()
	result := map[string]interface{}{"functions": []string{"greet", "main"}}

	v, err := eval.Evaluate(context.Background(),
		`len(result["functions"].([]string)) > 1`, result)
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestEvaluate_MissingKeyIsNil(t *testing.T) {
	eval := NewYaegiEvaluator()

	v, err := eval.Evaluate(context.Background(), `result["absent"]`, map[string]interface{}{})
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestEvaluate_SyntaxErrorReported(t *testing.T) {
	eval := NewYaegiEvaluator()

	_, err := eval.Evaluate(context.Background(), `][`, map[string]interface{}{})
	assert.Error(t, err)
}

func TestEvaluate_EmptyExpressionReported(t *testing.T) {
	eval := NewYaegiEvaluator()

	_, err := eval.Evaluate(context.Background(), "", map[string]interface{}{})
	assert.Error(t, err)
}

func TestEvaluate_PanicRecovered(t *testing.T) {
	eval := NewYaegiEvaluator()
	result := map[string]interface{}{}

	// Failed type assertion on a missing key panics inside the expression;
	// the evaluator must turn it into an error, not crash the engine.
	_, err := eval.Evaluate(context.Background(),
		`result["absent"].(string) == "x"`, result)
	assert.Error(t, err)
}

func TestEvaluate_FreshInterpreterPerCall(t *testing.T) {
	eval := NewYaegiEvaluator()
	result := map[string]interface{}{"n": 1}

	// Two evaluations with the same expression text must not interfere.
	for i := 0; i < 3; i++ {
		v, err := eval.Evaluate(context.Background(), `result["n"] == 1`, result)
		require.NoError(t, err)
		assert.Equal(t, true, v)
	}
}
