// Package feedback implements the rule evaluator at the heart of the
// codecoach education tool: author-defined rules are matched against a
// learner's source, filename, or captured run output, and every hit becomes
// a feedback record.
package feedback

import "time"

// Phase is the lifecycle moment a rule is eligible at.
type Phase string

const (
	PhaseEdit Phase = "edit"
	PhaseRun  Phase = "run"
)

// Target names the evaluation-time value a pattern is tested against.
type Target string

const (
	TargetCode     Target = "code"
	TargetFilename Target = "filename"
	TargetStdout   Target = "stdout"
	TargetStderr   Target = "stderr"
	TargetStdin    Target = "stdin"
)

// PatternType discriminates the pattern variant.
type PatternType string

const (
	PatternString PatternType = "string"
	PatternExact  PatternType = "exact"
	PatternRegex  PatternType = "regex"
	PatternAST    PatternType = "ast"
)

var knownPatternTypes = map[PatternType]bool{
	PatternString: true,
	PatternExact:  true,
	PatternRegex:  true,
	PatternAST:    true,
}

var knownTargets = map[Target]bool{
	TargetCode:     true,
	TargetFilename: true,
	TargetStdout:   true,
	TargetStderr:   true,
	TargetStdin:    true,
}

var knownPhases = map[Phase]bool{
	PhaseEdit: true,
	PhaseRun:  true,
}

// Pattern is the tagged variant a rule matches with.
//
// For string/exact/regex rules Expression is the literal or pattern text.
// For ast rules Expression names the structural query and Matcher holds the
// expression evaluated against the analysis result.
type Pattern struct {
	Type       PatternType `json:"type" yaml:"type"`
	Target     Target      `json:"target" yaml:"target"`
	Expression string      `json:"expression" yaml:"expression"`
	Flags      string      `json:"flags,omitempty" yaml:"flags,omitempty"`
	Matcher    string      `json:"matcher,omitempty" yaml:"matcher,omitempty"`
}

// Rule is the unit of authoring.
type Rule struct {
	ID       string  `json:"id" yaml:"id"`
	Title    string  `json:"title" yaml:"title"`
	When     []Phase `json:"when" yaml:"when"`
	Pattern  Pattern `json:"pattern" yaml:"pattern"`
	Message  string  `json:"message" yaml:"message"`
	Severity string  `json:"severity" yaml:"severity"`
}

func (r Rule) appliesTo(phase Phase) bool {
	for _, p := range r.When {
		if p == phase {
			return true
		}
	}
	return false
}

// Config is the canonical configuration every historical shape normalizes
// into: one ordered rule sequence. Duplicate IDs are legal; no dedup happens
// anywhere.
type Config struct {
	Feedback []Rule `json:"feedback" yaml:"feedback"`
}

// RunOutcome carries the captured streams of a completed run. Absent streams
// are empty strings.
type RunOutcome struct {
	Stdout   string `json:"stdout" yaml:"stdout"`
	Stderr   string `json:"stderr" yaml:"stderr"`
	Stdin    string `json:"stdin" yaml:"stdin"`
	Filename string `json:"filename" yaml:"filename"`
}

// Record is one evaluation result. Records are produced fresh per pass and
// never retained by the engine.
type Record struct {
	ID          string   `json:"id"`
	RuleID      string   `json:"ruleId"`
	Title       string   `json:"title"`
	Message     string   `json:"message"`
	Severity    string   `json:"severity"`
	Target      Target   `json:"target"`
	Phase       Phase    `json:"phase"`
	MatchedText string   `json:"matchedText,omitempty"`
	Captures    []string `json:"captures,omitempty"`
	// NonBooleanMatcher flags an ast match whose matcher expression produced
	// a truthy non-boolean value. Authoring tools surface it as a caution;
	// the match still counts.
	NonBooleanMatcher bool      `json:"nonBooleanMatcher,omitempty"`
	EmittedAt         time.Time `json:"emittedAt"`
}

// ResetPayload is carried on the "reset" event.
type ResetPayload struct {
	Config *Config `json:"config"`
}
