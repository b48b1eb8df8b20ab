package rprof

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsMatchSentinels(t *testing.T) {
	sentinels := []error{ErrParse, ErrIndex, ErrStepNotFound, ErrUnknownVariable, ErrShapeMismatch}

	tests := []struct {
		err  error
		want error
	}{
		{&ParseError{Line: 3, Content: "x", Reason: "bad"}, ErrParse},
		{&IndexError{Reason: "r"}, ErrIndex},
		{&StepNotFoundError{Ref: Step(4)}, ErrStepNotFound},
		{&UnknownVariableError{Name: "q"}, ErrUnknownVariable},
		{&ShapeMismatchError{Variable: "T", Step: 1, Want: 2, Got: 3}, ErrShapeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.want.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("context: %w", tt.err)
			for _, s := range sentinels {
				assert.Equal(t, s == tt.want, errors.Is(wrapped, s), "errors.Is(%v, %v)", tt.err, s)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `rprof: parse error at line 3: bad: "x"`,
		(&ParseError{Line: 3, Content: "x", Reason: "bad"}).Error())
	assert.Equal(t, "rprof: parse error: no line", (&ParseError{Reason: "no line"}).Error())
	assert.Equal(t, "rprof: step 4 not found", (&StepNotFoundError{Ref: Step(4)}).Error())
	assert.Equal(t, `rprof: unknown variable "q"`, (&UnknownVariableError{Name: "q"}).Error())
	assert.Equal(t, `rprof: shape mismatch for "T" at step 1: want 2 cells, got 3`,
		(&ShapeMismatchError{Variable: "T", Step: 1, Want: 2, Got: 3}).Error())
}
