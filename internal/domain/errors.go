package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedLine marks a recognized value-bearing line without the tag delimiter.
	ErrMalformedLine = errors.New("malformed line")
	// ErrLineTooLong marks a line cut off by the reader's length limit.
	ErrLineTooLong = fmt.Errorf("%w: line too long", ErrMalformedLine)

	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrInvalidPower      = errors.New("invalid power")
	ErrInvalidDate       = errors.New("invalid date")

	// ErrMissingRequiredField marks a record without a field the assembler needs.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrZeroFrequency marks a record whose center frequency decodes to 0.
	ErrZeroFrequency = errors.New("zero center frequency")
)

// DropReason explains why a raw record produced no output.
type DropReason string

const (
	DropZeroFrequency             DropReason = "zero or unparseable center frequency"
	DropMissingEmissionDesignator DropReason = "missing emission designator"
	DropInternal                  DropReason = "internal error"
)

// DropError is the error carried by a dropped [Outcome].
type DropError struct {
	Reason DropReason
	Err    error
}

func (e *DropError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return string(e.Reason) + ": " + e.Err.Error()
}

func (e *DropError) Unwrap() error { return e.Err }
