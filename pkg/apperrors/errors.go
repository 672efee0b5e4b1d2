package apperrors

import "errors"

var (
	ErrInvalidConfig          = errors.New("invalid configuration")
	ErrContainerUnreachable   = errors.New("container unreachable")
	ErrNoDocumentsSampled     = errors.New("no documents sampled")
	ErrInvalidPhaseTransition = errors.New("invalid assessment phase transition")
	ErrAssessmentFailed       = errors.New("assessment failed")
)
