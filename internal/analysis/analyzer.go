// Package analysis is the bridge between feedback rules and structural code
// analysis. A rule's pattern expression names one of the registered queries;
// the analyzer runs it against the learner's source and hands the result back
// as a plain map for the matcher expression to inspect.
package analysis

import "fmt"

// Result is the analysis outcome bound as `result` in matcher expressions.
// Values are restricted to plain types ([]string, int, bool, nested maps) so
// expressions stay portable across evaluator implementations.
type Result = map[string]interface{}

// Known query names.
const (
	QueryFunctions = "functions"
	QueryClasses   = "classes"
	QueryCalls     = "calls"
	QueryImports   = "imports"
	QueryLoops     = "loops"
	QuerySummary   = "summary"
)

// ErrUnknownQuery reports an expression that names no registered analysis.
type ErrUnknownQuery struct {
	Expression string
}

func (e *ErrUnknownQuery) Error() string {
	return fmt.Sprintf("analysis: unknown query %q", e.Expression)
}
