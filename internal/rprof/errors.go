package rprof

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every concrete error type below matches exactly one of
// these through errors.Is.
var (
	// ErrParse is returned for malformed lines and schema mismatches.
	ErrParse = errors.New("rprof: parse error")

	// ErrIndex is returned for structural inconsistencies between markers and rows.
	ErrIndex = errors.New("rprof: index error")

	// ErrStepNotFound is returned when a requested step is absent.
	ErrStepNotFound = errors.New("rprof: step not found")

	// ErrUnknownVariable is returned for names missing from the variable table.
	ErrUnknownVariable = errors.New("rprof: unknown variable")

	// ErrShapeMismatch is returned when profiles of different lengths are combined.
	ErrShapeMismatch = errors.New("rprof: shape mismatch")
)

// ParseError reports a line that could not be classified or decoded.
type ParseError struct {
	Line    int // 1-based physical line number, 0 when not tied to a line
	Content string
	Reason  string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("rprof: parse error: %s", e.Reason)
	}
	return fmt.Sprintf("rprof: parse error at line %d: %s: %q", e.Line, e.Reason, e.Content)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// IndexError reports markers and rows that cannot describe a valid zoning.
type IndexError struct {
	Reason string
}

func (e *IndexError) Error() string {
	return "rprof: index error: " + e.Reason
}

func (e *IndexError) Is(target error) bool { return target == ErrIndex }

// StepNotFoundError is returned by the locator. Callers walking a range may
// skip it; extraction propagates it.
type StepNotFoundError struct {
	Ref StepRef
}

func (e *StepNotFoundError) Error() string {
	return fmt.Sprintf("rprof: %s not found", e.Ref)
}

func (e *StepNotFoundError) Is(target error) bool { return target == ErrStepNotFound }

// UnknownVariableError names a variable missing from the VarTable.
type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("rprof: unknown variable %q", e.Name)
}

func (e *UnknownVariableError) Is(target error) bool { return target == ErrUnknownVariable }

// ShapeMismatchError is returned when a profile does not have the number of
// cells an operation requires.
type ShapeMismatchError struct {
	Variable string
	Step     int
	Want     int
	Got      int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("rprof: shape mismatch for %q at step %d: want %d cells, got %d",
		e.Variable, e.Step, e.Want, e.Got)
}

func (e *ShapeMismatchError) Is(target error) bool { return target == ErrShapeMismatch }
