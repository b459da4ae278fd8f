// internal/game/errors.go
package game

import "fmt"

// Rule rejection codes. A rejected command leaves state untouched; callers
// re-prompt rather than treating these as exceptional.
const (
	ErrWrongPlayer  = "wrong_player"
	ErrWrongPhase   = "wrong_phase"
	ErrInvalidMeld  = "invalid_meld"
	ErrInvalidInput = "invalid_input"
	ErrNotEligible  = "not_eligible"
	ErrEmptyPile    = "empty_pile"
)

// RuleError is the explicit result of a guard failure. State is byte-identical
// to before the rejected event; the message is advisory diagnostics only.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func reject(code, format string, args ...interface{}) *RuleError {
	return &RuleError{Code: code, Message: fmt.Sprintf(format, args...)}
}
