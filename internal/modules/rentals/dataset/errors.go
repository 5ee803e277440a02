package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrDataLoad reports a missing or unreadable source or a missing required column.
	ErrDataLoad = errors.New("data load")
	// ErrParse reports a value that does not conform to its column format.
	ErrParse = errors.New("parse")
)

type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrDataLoad, e.Err}
}

// ParseError locates a bad value. Row is the 1-based data row, header excluded.
type ParseError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s at row %d (%q): %v", e.Column, e.Row, e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s at row %d (%q)", e.Column, e.Row, e.Value)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}
