package equations

import "errors"

// ConfigError is an error from a structurally invalid request, such as an
// empty list of operands or an unknown operator. Entry points check their
// configuration before generating anything.
type ConfigError struct {
	// Field names the option or argument that is invalid.
	Field string
	// Reason describes the problem.
	Reason string
}

func (err *ConfigError) Error() string {
	return "equations: invalid " + err.Field + ": " + err.Reason
}

// ErrSearchSpaceTooLarge is returned when a request would generate more
// candidate expressions than allowed by MaxCandidates.
var ErrSearchSpaceTooLarge = errors.New("equations: search space too large")

// ErrStop may be returned from the callback to Each to stop generating
// expressions early. Each then returns nil.
var ErrStop = errors.New("equations: stop")
