package command

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMissingArgument = errors.New("missing argument")
	ErrUnrecognized    = errors.New("unrecognized command")
)

// ParseError describes why a command produced no Action. Kind is one of the
// sentinel errors above; Message is phrased for narration.
type ParseError struct {
	Kind    error
	Rule    string
	Command string
	Message string
}

func (e *ParseError) Error() string {
	if e.Rule == "" {
		return e.Kind.Error() + ": " + e.Message
	}
	return e.Rule + ": " + e.Kind.Error() + ": " + e.Message
}

func (e *ParseError) Unwrap() error { return e.Kind }

func invalid(rule, msg string) error {
	return &ParseError{Kind: ErrInvalidArgument, Rule: rule, Message: msg}
}

func missing(rule, msg string) error {
	return &ParseError{Kind: ErrMissingArgument, Rule: rule, Message: msg}
}
