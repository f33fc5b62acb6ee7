package recurrence

import (
	"errors"
	"fmt"
)

// ErrInvalidRule is returned when rule options are inconsistent or out of range
var ErrInvalidRule = errors.New("invalid recurrence rule")

// RuleError reports which option made a rule invalid.
type RuleError struct {
	Field   string
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidRule, e.Field, e.Message)
}

func (e *RuleError) Unwrap() error { return ErrInvalidRule }

func ruleErrorf(field, format string, args ...any) error {
	return &RuleError{Field: field, Message: fmt.Sprintf(format, args...)}
}
