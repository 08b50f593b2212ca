package latexcalc

import "github.com/njchilds90/latexcalc/internal/calcerr"

// Error is the single error type returned by the calculator. Use errors.As
// to reach its Kind, Stage, Op and parse Offset.
type Error = calcerr.Error

// Kind classifies an Error.
type Kind = calcerr.Kind

// Stage names the pipeline step an Error came from.
type Stage = calcerr.Stage

const (
	StageParse     = calcerr.StageParse
	StageNormalize = calcerr.StageNormalize
	StageEngine    = calcerr.StageEngine
	StageRender    = calcerr.StageRender
	StageRequest   = calcerr.StageRequest
)

// Sentinels for errors.Is.
var (
	ErrParse                 = calcerr.ErrParse
	ErrValidation            = calcerr.ErrValidation
	ErrAmbiguousVariable     = calcerr.ErrAmbiguousVariable
	ErrNoClosedForm          = calcerr.ErrNoClosedForm
	ErrDoesNotExist          = calcerr.ErrDoesNotExist
	ErrInconsistentSystem    = calcerr.ErrInconsistentSystem
	ErrUnderdeterminedSystem = calcerr.ErrUnderdeterminedSystem
	ErrTimeout               = calcerr.ErrTimeout
)

// KindOf returns the kind of err, or the unknown kind for foreign errors.
func KindOf(err error) Kind { return calcerr.KindOf(err) }

// StageOf returns the stage of err, or "".
func StageOf(err error) Stage { return calcerr.StageOf(err) }
