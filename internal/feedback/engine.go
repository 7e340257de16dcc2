package feedback

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codecoach/internal/events"
	"codecoach/internal/logging"
)

const defaultAnalysisTimeout = 2 * time.Second

// Engine owns the installed configuration and runs evaluation passes against
// it. Engines are independent: tests and embedders can run several side by
// side. The zero configuration evaluates to nothing; install rules with
// ResetFeedback.
type Engine struct {
	mu  sync.RWMutex
	cfg *Config

	bus             *events.Bus
	analyzer        Analyzer
	eval            MatcherEvaluator
	analysisTimeout time.Duration
	log             *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithAnalyzer installs the AST bridge. Without one, ast rules never match.
func WithAnalyzer(a Analyzer) Option {
	return func(e *Engine) { e.analyzer = a }
}

// WithMatcherEvaluator installs the matcher-expression evaluator for ast
// rules.
func WithMatcherEvaluator(ev MatcherEvaluator) Option {
	return func(e *Engine) { e.eval = ev }
}

// WithAnalysisTimeout bounds a single AST bridge call. A timeout is treated
// identically to an analyzer failure: no match for that rule.
func WithAnalysisTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.analysisTimeout = d
		}
	}
}

// WithLogger overrides the engine's logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an engine with an empty configuration.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:             &Config{},
		bus:             events.NewBus(),
		analysisTimeout: defaultAnalysisTimeout,
		log:             logging.Get(logging.CategoryEngine),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResetFeedback normalizes raw, installs it wholesale as the active
// configuration, and emits "reset" with the normalized config. It does not
// validate; authoring tools call ValidateConfig before committing a reset.
// The previous rule set is fully discarded. Returns the installed config.
func (e *Engine) ResetFeedback(raw interface{}) *Config {
	cfg := NormalizeConfig(raw)

	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()

	e.log.Debug("feedback configuration reset", zap.Int("rules", len(cfg.Feedback)))
	e.bus.Emit(events.EventReset, ResetPayload{Config: cfg})
	return cfg
}

// Config returns the currently installed configuration.
func (e *Engine) Config() *Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// On subscribes fn to an engine event ("matches", "reset").
func (e *Engine) On(event string, fn func(payload interface{})) *events.Listener {
	return e.bus.On(event, fn)
}

// Off removes exactly the given listener.
func (e *Engine) Off(l *events.Listener) {
	e.bus.Off(l)
}

// EvaluateOnEdit runs the edit-phase rules against the learner's current
// source text and file path.
func (e *Engine) EvaluateOnEdit(ctx context.Context, code, path string) []Record {
	return e.evaluate(ctx, PhaseEdit, map[Target]string{
		TargetCode:     code,
		TargetFilename: path,
	})
}

// EvaluateOnRun runs the run-phase rules against the captured streams of a
// completed execution.
func (e *Engine) EvaluateOnRun(ctx context.Context, outcome RunOutcome) []Record {
	return e.evaluate(ctx, PhaseRun, map[Target]string{
		TargetStdout:   outcome.Stdout,
		TargetStderr:   outcome.Stderr,
		TargetStdin:    outcome.Stdin,
		TargetFilename: outcome.Filename,
	})
}

// evaluate is the shared evaluation core. The installed configuration is
// captured once at entry: a reset during a suspended bridge call must not
// change which rules this pass evaluates. Per-rule failures degrade to
// no-match; an empty result list is a valid, non-error outcome.
func (e *Engine) evaluate(ctx context.Context, phase Phase, targets map[Target]string) []Record {
	e.mu.RLock()
	cfg := e.cfg
	e.mu.RUnlock()

	start := time.Now()
	var records []Record
	for _, rule := range cfg.Feedback {
		if !rule.appliesTo(phase) {
			continue
		}
		input, ok := targets[rule.Pattern.Target]
		if !ok {
			continue
		}
		out := e.matchRule(ctx, input, rule.Pattern)
		if !out.Matched {
			continue
		}
		records = append(records, Record{
			ID:                uuid.NewString(),
			RuleID:            rule.ID,
			Title:             rule.Title,
			Message:           renderMessage(rule, out),
			Severity:          rule.Severity,
			Target:            rule.Pattern.Target,
			Phase:             phase,
			MatchedText:       out.MatchedText,
			Captures:          out.Captures,
			NonBooleanMatcher: out.NonBooleanMatcher,
			EmittedAt:         time.Now(),
		})
	}

	e.log.Debug("evaluation pass complete",
		zap.String("phase", string(phase)),
		zap.Int("rules", len(cfg.Feedback)),
		zap.Int("matches", len(records)),
		zap.Duration("elapsed", time.Since(start)))

	if len(records) > 0 {
		e.bus.Emit(events.EventMatches, records)
	}
	return records
}

func (e *Engine) matchRule(ctx context.Context, input string, p Pattern) Outcome {
	switch p.Type {
	case PatternString, PatternExact, PatternRegex:
		return matchText(input, p, e.log)
	case PatternAST:
		return e.matchAST(ctx, input, p)
	default:
		// Unknown pattern types from newer or older configs contribute no
		// match and no error.
		return Outcome{}
	}
}

// matchAST runs the AST bridge and the matcher expression. Every failure
// path (no bridge, analyzer error, timeout, expression error) is recovered
// locally as no-match so one misbehaving rule never aborts the pass.
func (e *Engine) matchAST(ctx context.Context, input string, p Pattern) Outcome {
	if e.analyzer == nil || e.eval == nil {
		e.log.Debug("ast rule skipped: analyzer unavailable",
			zap.String("expression", p.Expression))
		return Outcome{}
	}

	actx, cancel := context.WithTimeout(ctx, e.analysisTimeout)
	defer cancel()

	result, err := e.analyzer.Analyze(actx, p.Expression, input)
	if err != nil {
		e.log.Debug("analysis failed",
			zap.String("expression", p.Expression),
			zap.Error(err))
		return Outcome{}
	}

	v, err := e.eval.Evaluate(actx, p.Matcher, result)
	if err != nil {
		e.log.Debug("matcher expression failed",
			zap.String("matcher", p.Matcher),
			zap.Error(err))
		return Outcome{}
	}

	if b, ok := v.(bool); ok {
		return Outcome{Matched: b}
	}
	if truthy(v) {
		return Outcome{
			Matched:           true,
			NonBooleanMatcher: true,
			MatchedText:       fmt.Sprint(v),
		}
	}
	return Outcome{}
}

var captureRef = regexp.MustCompile(`\$(\d+)`)

// renderMessage substitutes $1, $2, ... with regex capture groups. Patterns
// that produced no groups leave the literal $N untouched, and only regex
// rules substitute at all.
func renderMessage(rule Rule, out Outcome) string {
	if rule.Pattern.Type != PatternRegex || len(out.Captures) == 0 {
		return rule.Message
	}
	return captureRef.ReplaceAllStringFunc(rule.Message, func(ref string) string {
		n, err := strconv.Atoi(ref[1:])
		if err != nil || n < 1 || n > len(out.Captures) {
			return ref
		}
		return out.Captures[n-1]
	})
}
