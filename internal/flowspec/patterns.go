package flowspec

import (
	"fmt"
	"regexp"
)

var (
	flowIDPattern        = regexp.MustCompile(`^[a-z0-9_.-]+\.[a-z0-9_.-]+\.v[0-9]+$`)
	strictStepIDPattern  = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	lenientStepIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)
	conditionPattern     = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	emailPattern         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// StepIDMode selects which step id pattern a check applies.
//
// Two patterns exist for historical reasons: editing operations have always
// required a leading letter, while document validation accepted a leading
// digit. Callers pick one explicitly.
type StepIDMode string

const (
	// StepIDStrict requires ^[a-z][a-z0-9_]*$.
	StepIDStrict StepIDMode = "strict"
	// StepIDLenient accepts ^[a-z0-9_]+$.
	StepIDLenient StepIDMode = "lenient"
)

// ParseStepIDMode maps a config value to a StepIDMode. Empty means strict.
func ParseStepIDMode(s string) (StepIDMode, error) {
	switch StepIDMode(s) {
	case "", StepIDStrict:
		return StepIDStrict, nil
	case StepIDLenient:
		return StepIDLenient, nil
	}
	return "", fmt.Errorf("unknown step id mode %q (want strict or lenient)", s)
}

// ValidFlowID reports whether id matches <domain>.<name>.v<major>.
func ValidFlowID(id string) bool {
	return flowIDPattern.MatchString(id)
}

// ValidStepID reports whether id is a valid step id under mode.
func ValidStepID(id string, mode StepIDMode) bool {
	if mode == StepIDLenient {
		return lenientStepIDPattern.MatchString(id)
	}
	return strictStepIDPattern.MatchString(id)
}

// ValidCondition reports whether when is a valid edge condition label.
func ValidCondition(when string) bool {
	return conditionPattern.MatchString(when)
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
