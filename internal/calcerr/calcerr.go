// Package calcerr defines the tagged error used across every calculation
// stage. Each failure carries exactly one Kind and the Stage it came from.
package calcerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindParse
	KindValidation
	KindAmbiguousVariable
	KindNoClosedForm
	KindDoesNotExist
	KindInconsistentSystem
	KindUnderdeterminedSystem
	KindTimeout
)

var kindNames = map[Kind]string{
	KindUnknown:               "unknown",
	KindParse:                 "parse_error",
	KindValidation:            "validation_error",
	KindAmbiguousVariable:     "ambiguous_variable",
	KindNoClosedForm:          "no_closed_form",
	KindDoesNotExist:          "does_not_exist",
	KindInconsistentSystem:    "inconsistent_system",
	KindUnderdeterminedSystem: "underdetermined_system",
	KindTimeout:               "timeout",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Stage names the pipeline step that failed.
type Stage string

const (
	StageParse     Stage = "parse"
	StageNormalize Stage = "normalize"
	StageEngine    Stage = "engine"
	StageRender    Stage = "render"
	// StageRequest covers malformed tool requests, before any parsing.
	StageRequest Stage = "request"
)

// Error is the single error type surfaced by the calculator.
type Error struct {
	Kind  Kind
	Stage Stage
	// Op is the facade operation, e.g. "calculate_limit". Filled in by the facade.
	Op  string
	Msg string
	// Offset is the byte offset of a parse failure, or -1.
	Offset int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	prefix := string(e.Stage)
	if e.Op != "" {
		prefix = e.Op + ": " + prefix
	}
	if e.Offset >= 0 && e.Kind == KindParse {
		return fmt.Sprintf("%s: %s: %s (at offset %d)", prefix, e.Kind, msg, e.Offset)
	}
	return fmt.Sprintf("%s: %s: %s", prefix, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind. A target with
// KindUnknown never matches, so only the sentinels below are useful targets.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind != KindUnknown && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrParse                 = &Error{Kind: KindParse, Offset: -1}
	ErrValidation            = &Error{Kind: KindValidation, Offset: -1}
	ErrAmbiguousVariable     = &Error{Kind: KindAmbiguousVariable, Offset: -1}
	ErrNoClosedForm          = &Error{Kind: KindNoClosedForm, Offset: -1}
	ErrDoesNotExist          = &Error{Kind: KindDoesNotExist, Offset: -1}
	ErrInconsistentSystem    = &Error{Kind: KindInconsistentSystem, Offset: -1}
	ErrUnderdeterminedSystem = &Error{Kind: KindUnderdeterminedSystem, Offset: -1}
	ErrTimeout               = &Error{Kind: KindTimeout, Offset: -1}
)

// New builds an error of the given kind at the given stage.
func New(kind Kind, stage Stage, format string, args ...any) *Error {
	return &Error{Kind: kind, Stage: stage, Msg: fmt.Sprintf(format, args...), Offset: -1}
}

// Parse builds a parse error located at offset.
func Parse(offset int, format string, args ...any) *Error {
	return &Error{Kind: KindParse, Stage: StageParse, Msg: fmt.Sprintf(format, args...), Offset: offset}
}

// Wrap attaches kind and stage to err. An err that already is an *Error keeps
// its own kind and stage.
func Wrap(kind Kind, stage Stage, err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return &Error{Kind: kind, Stage: stage, Msg: err.Error(), Offset: -1, Err: err}
}

// WithOp returns a copy of err tagged with the facade operation name. Errors
// that are not *Error become KindUnknown engine errors.
func WithOp(err error, op string) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if !errors.As(err, &ce) {
		ce = &Error{Kind: KindUnknown, Stage: StageEngine, Msg: err.Error(), Offset: -1, Err: err}
	}
	cp := *ce
	cp.Op = op
	return &cp
}

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// StageOf returns the stage of err, or "".
func StageOf(err error) Stage {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Stage
	}
	return ""
}
