package ports

import (
	"fmt"

	"beanbook/internal/domain"
)

// ParseError is one validation problem reported by the parser. The ledger
// engine treats these as data on reads and as fatal on pre-commit checks.
type ParseError struct {
	Line    int
	Message string
}

func (e ParseError) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Parser turns ledger text into structured directives plus a list of
// validation errors. A non-nil error return means the text could not be
// processed at all; validation problems come back in the second value.
// The engine reads the file itself, so the port takes text, never a path.
type Parser interface {
	Parse(text string) ([]domain.Directive, []ParseError, error)
}
