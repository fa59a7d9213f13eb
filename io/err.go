package io

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	// Loader errors
	ErrFileNotFound = errors.New(f("file not found"))
	ErrRomFull      = errors.New(f("rom larger than memory"))

	// Output errors
	ErrConsoleClosed = errors.New(f("console has no output"))
)

// ErrRomSyntax indicates a line of a ROM image that is not a binary byte.
type ErrRomSyntax struct {
	LineNo int
	Line   string
}

func (err *ErrRomSyntax) Error() string {
	return f("line %d '%v' is not a binary byte", err.LineNo, err.Line)
}
