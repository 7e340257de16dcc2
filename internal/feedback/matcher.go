package feedback

import (
	"context"
	"reflect"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"codecoach/internal/logging"
)

// Outcome is the result of testing one pattern against one input.
type Outcome struct {
	Matched     bool
	MatchedText string
	// Captures holds regex groups 1..N from the first match, in order.
	Captures []string
	// NonBooleanMatcher marks an ast match whose matcher expression returned
	// a truthy value that was not a strict bool.
	NonBooleanMatcher bool
}

// Analyzer is the bridge to the external code analyzer. Implementations run
// the structural query named by expression against source.
type Analyzer interface {
	Analyze(ctx context.Context, expression, source string) (map[string]interface{}, error)
}

// MatcherEvaluator evaluates an ast rule's matcher expression with the
// analysis result bound as `result`.
type MatcherEvaluator interface {
	Evaluate(ctx context.Context, expr string, result map[string]interface{}) (interface{}, error)
}

// MatchExpectation tests input against a pattern or bare literal. A bare
// string is treated as a substring pattern. AST patterns need an engine
// (analyzer + evaluator) and report no match here, matching the degraded
// behavior of an unavailable analyzer.
func MatchExpectation(input string, patternOrLiteral interface{}) Outcome {
	switch p := patternOrLiteral.(type) {
	case string:
		return matchText(input, Pattern{Type: PatternString, Expression: p}, nil)
	case Pattern:
		return matchText(input, p, nil)
	case *Pattern:
		if p == nil {
			return Outcome{}
		}
		return matchText(input, *p, nil)
	default:
		return Outcome{}
	}
}

// matchText handles the synchronous pattern kinds. Unsupported types report
// no match without error: configs written for newer engine versions must
// still evaluate.
func matchText(input string, p Pattern, log *zap.Logger) Outcome {
	switch p.Type {
	case PatternString:
		if strings.Contains(input, p.Expression) {
			return Outcome{Matched: true, MatchedText: p.Expression}
		}
	case PatternExact:
		if input == p.Expression {
			return Outcome{Matched: true, MatchedText: input}
		}
	case PatternRegex:
		re, err := compilePattern(p.Expression, p.Flags)
		if err != nil {
			if log == nil {
				log = logging.Get(logging.CategoryMatcher)
			}
			log.Warn("regex pattern failed to compile",
				zap.String("expression", p.Expression),
				zap.Error(err))
			return Outcome{}
		}
		m := re.FindStringSubmatch(input)
		if m != nil {
			return Outcome{Matched: true, MatchedText: m[0], Captures: m[1:]}
		}
	}
	return Outcome{}
}

// compilePattern translates the config's flag letters into inline flags.
// Only i/m/s have Go equivalents; g is implicit (first occurrence decides)
// and anything else is ignored rather than rejected.
func compilePattern(expression, flags string) (*regexp.Regexp, error) {
	var inline strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			inline.WriteRune(f)
		}
	}
	if inline.Len() > 0 {
		expression = "(?" + inline.String() + ")" + expression
	}
	return regexp.Compile(expression)
}

// truthy mirrors the loose semantics matcher expressions are written
// against: nil, false, zero numbers, and empty strings/collections are
// falsy, everything else matches.
func truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	switch w := v.(type) {
	case bool:
		return w
	case string:
		return w != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}
