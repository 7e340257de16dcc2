package feedback

import "fmt"

// ConfigError reports a structurally unsound configuration or rule.
// RuleIndex is -1 when the problem is with the config shape itself.
type ConfigError struct {
	RuleIndex int
	RuleID    string
	Reason    string
}

func (e *ConfigError) Error() string {
	if e.RuleIndex < 0 {
		return fmt.Sprintf("invalid feedback config: %s", e.Reason)
	}
	if e.RuleID != "" {
		return fmt.Sprintf("invalid feedback rule %q (index %d): %s", e.RuleID, e.RuleIndex, e.Reason)
	}
	return fmt.Sprintf("invalid feedback rule at index %d: %s", e.RuleIndex, e.Reason)
}

// ValidateConfig checks a raw configuration before installation. It never
// mutates its input and is safe to call as a standalone authoring-time check.
// Unlike evaluation, validation is strict: unknown pattern types and targets
// are rejected here even though the evaluator would tolerate them.
func ValidateConfig(raw interface{}) error {
	switch v := raw.(type) {
	case *Config:
		if v == nil {
			return &ConfigError{RuleIndex: -1, Reason: "config is nil"}
		}
	case Config:
	case map[string]interface{}:
		switch v["feedback"].(type) {
		case []interface{}, map[string]interface{}:
		default:
			return &ConfigError{RuleIndex: -1, Reason: "feedback is not an array"}
		}
	case nil:
		return &ConfigError{RuleIndex: -1, Reason: "config is nil"}
	default:
		return &ConfigError{RuleIndex: -1, Reason: fmt.Sprintf("config is not an object (got %T)", raw)}
	}

	cfg := NormalizeConfig(raw)
	for i, rule := range cfg.Feedback {
		if err := validateRule(i, rule); err != nil {
			return err
		}
	}
	return nil
}

func validateRule(index int, r Rule) error {
	fail := func(reason string) error {
		return &ConfigError{RuleIndex: index, RuleID: r.ID, Reason: reason}
	}

	if r.ID == "" {
		return fail("missing id")
	}
	if r.Title == "" {
		return fail("missing title")
	}
	if len(r.When) == 0 {
		return fail("missing when")
	}
	for _, p := range r.When {
		if !knownPhases[p] {
			return fail(fmt.Sprintf("unknown phase %q in when", p))
		}
	}
	if r.Pattern == (Pattern{}) {
		return fail("missing pattern")
	}
	if !knownPatternTypes[r.Pattern.Type] {
		return fail(fmt.Sprintf("unknown pattern type %q", r.Pattern.Type))
	}
	if !knownTargets[r.Pattern.Target] {
		return fail(fmt.Sprintf("unknown pattern target %q", r.Pattern.Target))
	}
	return nil
}
