package safe

import (
	"fmt"
	"regexp"
	"strings"
)

// Rules is an immutable set of block patterns. The zero value matches nothing.
//
// Example:
//
//	rules, err := safe.NewRules(cfg.BlockedCardPattern)
//	if err != nil {
//	    return err
//	}
//	if pattern, blocked := rules.Match(req.CardNumber); blocked {
//	    // decline with the matched pattern in the log
//	}
type Rules struct {
	patterns []*regexp.Regexp
}

// NewRules compiles every non-blank pattern. The first invalid one fails
// the whole set.
func NewRules(patterns ...string) (Rules, error) {
	var rules Rules

	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}

		re, err := Compile(p)
		if err != nil {
			return Rules{}, fmt.Errorf("rule %q: %w", p, err)
		}

		rules.patterns = append(rules.patterns, re)
	}

	return rules, nil
}

// Match returns the first pattern that matches input.
func (r Rules) Match(input string) (string, bool) {
	for _, re := range r.patterns {
		if re.MatchString(input) {
			return re.String(), true
		}
	}

	return "", false
}

// Len returns the number of compiled patterns.
func (r Rules) Len() int {
	return len(r.patterns)
}
