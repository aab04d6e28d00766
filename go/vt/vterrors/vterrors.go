/*
Copyright 2026 The Gridsql Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package vterrors provides simple error handling primitives for the
// execution layer.
//
// Every error created here carries a Code and, optionally, a State. The
// Code says what kind of failure happened (invalid argument, data loss,
// cancellation, ...) and is what a coordinator uses to decide whether a
// query fragment should be aborted. The State refines the Code with the
// phase of execution that failed, which lets callers tell a failed
// operator setup apart from a failed row evaluation without parsing
// error messages.
//
// Wrapping an error with Wrap or Wrapf keeps the Code and State of the
// innermost error, so they survive being annotated on the way up:
//
//	if err := decode(data); err != nil {
//	        return vterrors.Wrapf(err, "partition %d", partitionID)
//	}
//
// Errors capture the stack of the caller that created them. Formatting an
// error with %+v, or with %v while LogErrStacks is set, prints the stack.
package vterrors

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"gridsql.io/gridsql/go/vt/vtrpc"
)

// LogErrStacks controls whether printing errors with %v includes the
// stack trace captured when the error was created.
var LogErrStacks bool

// RegisterFlags registers the command-line options that control the
// package behavior.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&LogErrStacks, "log-err-stacks", LogErrStacks, "log stack traces for errors")
}

// New returns an error with the supplied message.
// New also records the stack trace at the point it was called.
func New(code vtrpc.Code, message string) error {
	return &fundamental{
		msg:   message,
		code:  code,
		stack: callers(),
	}
}

// Errorf formats according to a format specifier and returns the string
// as a value that satisfies error.
// Errorf also records the stack trace at the point it was called.
func Errorf(code vtrpc.Code, format string, args ...any) error {
	return &fundamental{
		msg:   fmt.Sprintf(format, args...),
		code:  code,
		stack: callers(),
	}
}

// NewErrorf formats according to a format specifier and returns the string
// as a value that satisfies error.
// NewErrorf also records the stack trace at the point it was called.
func NewErrorf(code vtrpc.Code, state State, format string, args ...any) error {
	return &fundamental{
		msg:   fmt.Sprintf(format, args...),
		code:  code,
		state: state,
		stack: callers(),
	}
}

// fundamental is an error that has a message and a stack, but no caller.
type fundamental struct {
	msg   string
	code  vtrpc.Code
	state State
	*stack
}

func (f *fundamental) Error() string { return f.msg }

func (f *fundamental) ErrorCode() vtrpc.Code { return f.code }

func (f *fundamental) ErrorState() State { return f.state }

func (f *fundamental) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		io.WriteString(s, f.msg)
		if s.Flag('+') || LogErrStacks {
			fmt.Fprintf(s, "%+v", f.stack)
		}
	case 's':
		io.WriteString(s, f.msg)
	case 'q':
		fmt.Fprintf(s, "%q", f.msg)
	}
}

// Code returns the error code if it's a vtError.
// If err is nil, it returns ok.
func Code(err error) vtrpc.Code {
	if err == nil {
		return vtrpc.Code_OK
	}
	var withCode ErrorWithCode
	if errors.As(err, &withCode) {
		return withCode.ErrorCode()
	}
	// Handle some special cases.
	switch {
	case errors.Is(err, context.Canceled):
		return vtrpc.Code_CANCELED
	case errors.Is(err, context.DeadlineExceeded):
		return vtrpc.Code_DEADLINE_EXCEEDED
	}
	return vtrpc.Code_UNKNOWN
}

// ErrState returns the error state if it's a vtError.
// If err is nil, it returns Undefined.
func ErrState(err error) State {
	if err == nil {
		return Undefined
	}
	var withState ErrorWithState
	if errors.As(err, &withState) {
		return withState.ErrorState()
	}
	return Undefined
}

// Wrap returns an error annotating err with a stack trace
// at the point Wrap is called, and the supplied message.
// If err is nil, Wrap returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrapping{
		cause: err,
		msg:   message,
		stack: callers(),
	}
}

// Wrapf returns an error annotating err with a stack trace
// at the point Wrapf is call, and the format specifier.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &wrapping{
		cause: err,
		msg:   fmt.Sprintf(format, args...),
		stack: callers(),
	}
}

type wrapping struct {
	cause error
	msg   string
	stack *stack
}

func (w *wrapping) Error() string { return w.msg + ": " + w.cause.Error() }

func (w *wrapping) Cause() error { return w.cause }

func (w *wrapping) Unwrap() error { return w.cause }

func (w *wrapping) Format(s fmt.State, verb rune) {
	if rune('v') == verb && (s.Flag('+') || LogErrStacks) {
		fmt.Fprintf(s, "%+v\n", w.cause)
		io.WriteString(s, w.msg)
		fmt.Fprintf(s, "%+v", w.stack)
		return
	}
	io.WriteString(s, w.Error())
}

// Cause will return the immediate cause, if possible.
// An error value has a cause if it implements the following
// interface:
//
//	type causer interface {
//	       Cause() error
//	}
//
// If the error does not implement Cause, nil will be returned
func Cause(err error) error {
	type causer interface {
		Cause() error
	}

	causerObj, ok := err.(causer)
	if !ok {
		return nil
	}

	return causerObj.Cause()
}

// RootCause returns the underlying cause of the error, if possible.
// If the error does not implement Cause, the original error will be returned.
func RootCause(err error) error {
	for {
		cause := Cause(err)
		if cause == nil {
			return err
		}
		err = cause
	}
}
