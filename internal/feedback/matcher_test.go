package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchExpectation_BareLiteralIsSubstring(t *testing.T) {
	assert.True(t, MatchExpectation("hello world", "world").Matched)
	assert.False(t, MatchExpectation("hello world", "World").Matched)
	assert.False(t, MatchExpectation("hello", "hello world").Matched)
}

func TestMatchExpectation_StringPattern(t *testing.T) {
	p := Pattern{Type: PatternString, Expression: "hi"}
	out := MatchExpectation("hi all", p)
	assert.True(t, out.Matched)
	assert.Equal(t, "hi", out.MatchedText)
	assert.Empty(t, out.Captures)

	assert.False(t, MatchExpectation("bye", p).Matched)
}

func TestMatchExpectation_ExactPattern(t *testing.T) {
	p := Pattern{Type: PatternExact, Expression: "done"}
	assert.True(t, MatchExpectation("done", p).Matched)
	assert.False(t, MatchExpectation("done ", p).Matched)
	assert.False(t, MatchExpectation("almost done", p).Matched)
}

func TestMatchExpectation_RegexCaptures(t *testing.T) {
	p := Pattern{Type: PatternRegex, Expression: `Value:\s*(\d+)\s+(OK)`}
	out := MatchExpectation("Value: 42 OK\nOther", p)

	require.True(t, out.Matched)
	assert.Equal(t, "Value: 42 OK", out.MatchedText)
	require.Len(t, out.Captures, 2)
	assert.Equal(t, "42", out.Captures[0])
	assert.Equal(t, "OK", out.Captures[1])
}

func TestMatchExpectation_RegexFirstOccurrenceWins(t *testing.T) {
	p := Pattern{Type: PatternRegex, Expression: `(\d+)`}
	out := MatchExpectation("a 1 b 2", p)
	require.True(t, out.Matched)
	assert.Equal(t, "1", out.Captures[0])
}

func TestMatchExpectation_RegexCaseInsensitiveFlag(t *testing.T) {
	sensitive := Pattern{Type: PatternRegex, Expression: "error"}
	insensitive := Pattern{Type: PatternRegex, Expression: "error", Flags: "i"}

	assert.False(t, MatchExpectation("ERROR: boom", sensitive).Matched)
	assert.True(t, MatchExpectation("ERROR: boom", insensitive).Matched)
}

func TestMatchExpectation_RegexUnknownFlagsIgnored(t *testing.T) {
	p := Pattern{Type: PatternRegex, Expression: "x", Flags: "gi"}
	assert.True(t, MatchExpectation("X marks", p).Matched)
}

func TestMatchExpectation_InvalidRegexIsNoMatch(t *testing.T) {
	p := Pattern{Type: PatternRegex, Expression: "(unclosed"}
	assert.False(t, MatchExpectation("(unclosed", p).Matched)
}

func TestMatchExpectation_UnsupportedTypeIsNoMatch(t *testing.T) {
	p := Pattern{Type: PatternType("glob"), Expression: "*"}
	assert.False(t, MatchExpectation("anything", p).Matched)
}

func TestMatchExpectation_ASTWithoutBridgeIsNoMatch(t *testing.T) {
	p := Pattern{Type: PatternAST, Expression: "functions", Matcher: "true"}
	assert.False(t, MatchExpectation("def f(): pass", p).Matched)
}

func TestMatchExpectation_UnexpectedArgument(t *testing.T) {
	assert.False(t, MatchExpectation("input", 42).Matched)
	assert.False(t, MatchExpectation("input", (*Pattern)(nil)).Matched)
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    interface{}
		want bool
	}{
		{"nil", nil, false},
		{"false", false, false},
		{"true", true, true},
		{"zero int", 0, false},
		{"int", 3, true},
		{"zero float", 0.0, false},
		{"float", 0.5, true},
		{"empty string", "", false},
		{"string", "x", true},
		{"empty slice", []string{}, false},
		{"slice", []string{"a"}, true},
		{"empty map", map[string]interface{}{}, false},
		{"map", map[string]interface{}{"k": 1}, true},
		{"struct", struct{}{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, truthy(tc.v))
		})
	}
}
