package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gridctl/jsproc/pkg/engine"
)

const errorPrefix = "Error: "

// TranspileError is the failure returned for anything that goes wrong
// while running code in the engine: thrown values, timeouts and
// cancellations.
type TranspileError struct {
	Message string
	// Stack is the engine stack trace of the original failure.
	Stack string

	cause error
}

func (e *TranspileError) Error() string {
	return e.Message
}

func (e *TranspileError) Unwrap() error {
	return e.cause
}

// Translate converts an engine failure into a *TranspileError.
//
// Thrown strings can arrive JSON-encoded a second time, e.g.
// `Error: "bad thing"`. The text after the "Error: " prefix is decoded as a
// JSON value when possible; otherwise the message is kept verbatim.
func Translate(err error) *TranspileError {
	if err == nil {
		return nil
	}

	var te *TranspileError
	if errors.As(err, &te) {
		return te
	}

	msg := err.Error()
	stack := ""
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		msg = re.Message
		stack = re.Stack
	}

	return &TranspileError{
		Message: decodeMessage(msg),
		Stack:   stack,
		cause:   err,
	}
}

func decodeMessage(msg string) string {
	rest, ok := strings.CutPrefix(msg, errorPrefix)
	if !ok {
		return msg
	}

	var wrapped struct {
		Value any `json:"value"`
	}
	if err := json.Unmarshal([]byte(`{"value": `+rest+`}`), &wrapped); err != nil {
		return msg
	}

	switch v := wrapped.Value.(type) {
	case string:
		return errorPrefix + v
	case nil:
		// Spelled out rather than left empty, so a thrown null stays visible.
		return errorPrefix + "null"
	default:
		return errorPrefix + fmt.Sprint(v)
	}
}
