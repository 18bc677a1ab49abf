package transcript

import "fmt"

// ParseError means the input is not well-formed for its declared format.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingAttributeError means a required attribute could not be found,
// after exhausting any fallback.
type MissingAttributeError struct {
	Element string
	Attr    string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("missing attribute %s on <%s>", e.Attr, e.Element)
}
