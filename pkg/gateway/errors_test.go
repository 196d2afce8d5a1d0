package gateway

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gridctl/jsproc/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"json encoded string", `Error: "bad thing"`, "Error: bad thing"},
		{"json escapes", `Error: "line\nnext \"quoted\""`, "Error: line\nnext \"quoted\""},
		{"plain message", "Error: bad thing", "Error: bad thing"},
		{"json number", "Error: 42", "Error: 42"},
		{"json null is spelled out", "Error: null", "Error: null"},
		{"no prefix", `TypeError: "x" is not a function`, `TypeError: "x" is not a function`},
		{"truncated json", `Error: "unterminated`, `Error: "unterminated`},
		{"empty remainder", "Error: ", "Error: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Translate(&engine.RuntimeError{Message: tt.message, Stack: "at fn (x.js:1:1)"})
			require.NotNil(t, err)
			assert.Equal(t, tt.want, err.Message)
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, "at fn (x.js:1:1)", err.Stack)
		})
	}
}

func TestTranslate_Nil(t *testing.T) {
	assert.Nil(t, Translate(nil))
}

func TestTranslate_PreservesCause(t *testing.T) {
	cause := engine.TimeoutError{Timeout: 15}
	re := &engine.RuntimeError{Message: cause.Error(), Interrupted: true}
	err := Translate(fmt.Errorf("calling transpile: %w", re))

	var got *engine.RuntimeError
	require.True(t, errors.As(err, &got))
	assert.Same(t, re, got)
	assert.Equal(t, cause.Error(), err.Message)
}

func TestTranslate_PlainError(t *testing.T) {
	err := Translate(errors.New(`Error: "from go"`))
	assert.Equal(t, "Error: from go", err.Message)
	assert.Empty(t, err.Stack)
}

func TestTranslate_AlreadyTranslated(t *testing.T) {
	te := &TranspileError{Message: "Error: once"}
	assert.Same(t, te, Translate(te))
}
