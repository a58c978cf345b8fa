package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures for transport mapping.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindValidation
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	default:
		return "unexpected"
	}
}

var (
	ErrMissingParams     = errors.New("missing crypto or price parameter")
	ErrUnsupportedSymbol = errors.New("unsupported cryptocurrency")
	ErrInvalidPrice      = errors.New("price must be a valid number")
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrNoData            = errors.New("no historical data")
	ErrInsufficientData  = errors.New("not enough historical data")
	ErrMalformedSeries   = errors.New("malformed price series")
	ErrShapeMismatch     = errors.New("model input shape mismatch")
)

// PredictionError carries a taxonomy kind, a client-safe message and the cause.
type PredictionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PredictionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PredictionError) Unwrap() error { return e.Err }

// ValidationError builds a 400-class failure.
func ValidationError(msg string, err error) *PredictionError {
	return &PredictionError{Kind: KindValidation, Message: msg, Err: err}
}

// UpstreamError builds a failure caused by the market data provider.
func UpstreamError(msg string, err error) *PredictionError {
	return &PredictionError{Kind: KindUpstream, Message: msg, Err: err}
}

// UnexpectedError builds a catch-all failure.
func UnexpectedError(err error) *PredictionError {
	return &PredictionError{Kind: KindUnexpected, Message: "Unexpected error", Err: err}
}

// KindOf returns the kind carried by err, or KindUnexpected.
func KindOf(err error) ErrorKind {
	var pe *PredictionError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnexpected
}
