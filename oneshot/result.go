package oneshot

import (
	"encoding/json"
	"strconv"

	"grol.io/oneshot/token"
)

// Failure kinds.
const (
	ParseError        = "ParseError"
	ContextMergeError = "ContextMergeError"
	RuntimeError      = "RuntimeError"
	NonZeroExitCode   = "NonZeroExitCode"
	MissingCapability = "MissingCapability"
	UnexpectedType    = "UnexpectedType"
	JSONDecodeError   = "JSONDecodeError"
	ConversionError   = "ConversionError"
)

// Exit codes other than the ones requested by the program.
const (
	ExitFailure    = 1
	ExitParseError = 2
)

// Span locates a failure in the program text (byte offsets, end excluded).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s *Span) String() string {
	return strconv.Itoa(s.Start) + ".." + strconv.Itoa(s.End)
}

func newSpan(s token.Span) *Span {
	return &Span{Start: s.Start, End: s.End}
}

// Failure is the structured error payload of an EvalResult.
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Span    *Span  `json:"span,omitempty"`
	// ErrorKind is the interpreter's own error kind (TypeMismatch, DivisionByZero...).
	ErrorKind string   `json:"error_kind,omitempty"`
	Stack     []string `json:"stack,omitempty"`
	ExitCode  int      `json:"exit_code,omitempty"`
	// Diagnostics are all the parse errors, the first one being the Message.
	Diagnostics []string `json:"diagnostics,omitempty"`
	// Type is what the JSON conversion returned instead of a string.
	Type string `json:"type,omitempty"`
}

func (f *Failure) Error() string {
	return f.Kind + ": " + f.Message
}

// EvalResult is the externally visible result of an evaluation.
// On success ExitCode is 0 and Error nil, otherwise Output is null.
type EvalResult struct {
	Output   json.RawMessage `json:"output"`
	ExitCode int             `json:"exit_code"`
	Error    *Failure        `json:"error"`
}

// Classify maps an outcome, and for values the result of Serialize, to the EvalResult.
func Classify(o Outcome, output json.RawMessage, serializeErr *Failure) EvalResult {
	switch o.Kind { //nolint:exhaustive // Failed is handled after.
	case Value, EarlyReturn:
		if serializeErr != nil {
			return EvalResult{ExitCode: ExitFailure, Error: serializeErr}
		}
		return EvalResult{Output: output}
	case ExitRequested:
		if o.Code == 0 {
			return EvalResult{}
		}
		return EvalResult{
			ExitCode: o.Code,
			Error: &Failure{
				Kind:     NonZeroExitCode,
				Message:  "exit status " + strconv.Itoa(o.Code),
				Span:     newSpan(o.Span),
				ExitCode: o.Code,
			},
		}
	}
	code := ExitFailure
	if o.Failure.Kind == ParseError {
		code = ExitParseError
	}
	return EvalResult{ExitCode: code, Error: o.Failure}
}
