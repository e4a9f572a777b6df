// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package errors wraps pkg/errors and adds error codes and the source location
// where a coded error was raised.
package errors

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

// Code is an error code which can be used to check against a given error. For
// example, see the Is() method.
type Code string

const (
	ErrUncoded            Code = "Uncoded"
	ErrSourceUnavailable  Code = "SourceUnavailable"
	ErrMalformedResult    Code = "MalformedResult"
	ErrPersistenceFailure Code = "PersistenceFailure"
	ErrConfigInvalid      Code = "ConfigInvalid"
)

// New returns a coded error with the given message, recording the location
// of the caller.
func New(code Code, message string) error {
	return errors.WithStack(newCoded(code, message, nil, 2))
}

// Newf is like New with a formatted message.
func Newf(code Code, format string, args ...interface{}) error {
	return errors.WithStack(newCoded(code, fmt.Sprintf(format, args...), nil, 2))
}

// Wrap returns a coded error which carries cause. The message of cause is
// embedded in the message of the returned error. Wrap returns nil if cause is
// nil.
func Wrap(code Code, cause error, message string) error {
	if cause == nil {
		return nil
	}
	return errors.WithStack(newCoded(code, message, cause, 2))
}

// Wrapf is like Wrap with a formatted message.
func Wrapf(code Code, cause error, format string, args ...interface{}) error {
	if cause == nil {
		return nil
	}
	return errors.WithStack(newCoded(code, fmt.Sprintf(format, args...), cause, 2))
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Is is a fork of the Is() method from `pkg/errors` which takes as its target
// an error Code instead of an error.
func Is(err error, target Code) bool {
	return errors.Is(err, &codedError{Code: target})
}

// KindOf returns the code of the outermost coded error in err's chain, or
// ErrUncoded if there is none.
func KindOf(err error) Code {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrUncoded
}

// Location returns the file and line at which the outermost coded error in
// err's chain was created.
func Location(err error) (file string, line int, ok bool) {
	var ce *codedError
	if !errors.As(err, &ce) || ce.File == "" {
		return "", 0, false
	}
	return ce.File, ce.Line, true
}

func WithMessage(err error, message string) error {
	return errors.WithMessage(err, message)
}

func WithMessagef(err error, format string, args ...interface{}) error {
	return errors.WithMessagef(err, format, args...)
}

// codedError is the fundamental type used by this package to provide coded
// errors.
type codedError struct {
	Code    Code
	Message string
	Cause   error
	File    string
	Line    int
}

func newCoded(code Code, message string, cause error, skip int) *codedError {
	ce := &codedError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
	if _, file, line, ok := runtime.Caller(skip); ok {
		ce.File = filepath.Base(file)
		ce.Line = line
	}
	return ce
}

func (ce *codedError) Error() string {
	msg := ce.Message
	if ce.Cause != nil {
		msg += ": " + ce.Cause.Error()
	}
	if ce.File == "" {
		return msg
	}
	return fmt.Sprintf("error occurred in %s at line %d: %s", ce.File, ce.Line, msg)
}

func (ce *codedError) Unwrap() error {
	return ce.Cause
}

func (ce *codedError) Is(err error) bool {
	if e, ok := err.(*codedError); ok && ce.Code == e.Code {
		return true
	}
	return false
}
