package feedback

import "sort"

// Bucket names appear in this order when a legacy categorized config is
// flattened. Decoded maps lose the author's key order, so a fixed order is
// the only way to keep flattening deterministic.
var bucketOrder = []string{"string", "exact", "regex", "ast"}

// NormalizeConfig accepts any of the historical rule-configuration shapes and
// returns the canonical ordered form. It is side-effect free and never
// validates: callers can normalize a config for inspection without it being
// fully compliant. Unrecognized input yields an empty config.
//
// Recognized shapes:
//   - already-canonical Config / *Config
//   - {"feedback": [...]} with rule objects
//   - legacy {"feedback": {"<patternType>": [...], ...}} where each bucket's
//     entries take their pattern type from the bucket name
func NormalizeConfig(raw interface{}) *Config {
	switch v := raw.(type) {
	case nil:
		return &Config{}
	case *Config:
		if v == nil {
			return &Config{}
		}
		return cloneConfig(v)
	case Config:
		return cloneConfig(&v)
	case map[string]interface{}:
		return normalizeMap(v)
	default:
		return &Config{}
	}
}

func cloneConfig(c *Config) *Config {
	out := &Config{Feedback: make([]Rule, len(c.Feedback))}
	copy(out.Feedback, c.Feedback)
	for i := range out.Feedback {
		out.Feedback[i].When = append([]Phase(nil), out.Feedback[i].When...)
	}
	return out
}

func normalizeMap(m map[string]interface{}) *Config {
	cfg := &Config{}
	switch fb := m["feedback"].(type) {
	case []interface{}:
		for _, entry := range fb {
			if rm, ok := entry.(map[string]interface{}); ok {
				cfg.Feedback = append(cfg.Feedback, decodeRule(rm, ""))
			}
		}
	case map[string]interface{}:
		for _, bucket := range legacyBuckets(fb) {
			entries, ok := fb[bucket].([]interface{})
			if !ok {
				continue
			}
			for _, entry := range entries {
				if rm, ok := entry.(map[string]interface{}); ok {
					cfg.Feedback = append(cfg.Feedback, decodeRule(rm, PatternType(bucket)))
				}
			}
		}
	}
	return cfg
}

// legacyBuckets returns the bucket names to visit: the four known pattern
// types first, then any unknown buckets sorted. Unknown buckets still
// flatten (their rules carry the unknown type, which validation rejects and
// evaluation tolerates).
func legacyBuckets(fb map[string]interface{}) []string {
	buckets := make([]string, 0, len(fb))
	seen := make(map[string]bool, len(fb))
	for _, name := range bucketOrder {
		if _, ok := fb[name]; ok {
			buckets = append(buckets, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range fb {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(buckets, rest...)
}

// decodeRule is deliberately lenient: missing or mistyped fields stay zero.
// Strictness lives in ValidateConfig.
func decodeRule(m map[string]interface{}, impliedType PatternType) Rule {
	r := Rule{
		ID:       asString(m["id"]),
		Title:    asString(m["title"]),
		Message:  asString(m["message"]),
		Severity: asString(m["severity"]),
		When:     decodePhases(m["when"]),
	}
	if pm, ok := m["pattern"].(map[string]interface{}); ok {
		r.Pattern = Pattern{
			Type:       PatternType(asString(pm["type"])),
			Target:     Target(asString(pm["target"])),
			Expression: asString(pm["expression"]),
			Flags:      asString(pm["flags"]),
			Matcher:    asString(pm["matcher"]),
		}
	}
	if r.Pattern.Type == "" && impliedType != "" {
		r.Pattern.Type = impliedType
	}
	return r
}

func decodePhases(v interface{}) []Phase {
	switch w := v.(type) {
	case string:
		return []Phase{Phase(w)}
	case []interface{}:
		var phases []Phase
		for _, p := range w {
			if s, ok := p.(string); ok {
				phases = append(phases, Phase(s))
			}
		}
		return phases
	default:
		return nil
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
