/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package errors provides the coded, chainable error type used across the
// gateway. A component never returns a bare error for anything the
// dispatcher must translate into an S3 response: it returns an
// errors.Error carrying a CodeError, so the dispatcher's single
// response-emitting point can render the right <Error> body without
// inspecting message text.
package errors

import (
	"errors"
	"strings"
)

// Error is a coded error that still satisfies the standard error
// interface and participates in errors.Is/errors.As chains.
type Error interface {
	error

	Code() CodeError
	Resource() string
	WithResource(resource string) Error

	Add(parent ...error) Error
	Parent() error

	Is(err error) bool
	Unwrap() error
}

type ers struct {
	code CodeError
	msg  string
	res  string
	prnt error
}

// New creates a coded error with the given message. The message is for
// logs and internal diagnostics only — it never reaches the client; the
// dispatcher renders the S3 <Message> element from CodeError.S3Code(),
// not from this string.
func New(code CodeError, msg string) Error {
	return &ers{code: code, msg: msg}
}

// Wrap creates a coded error around a lower-level cause (a filesystem
// error, a parse failure) without leaking the cause's text into any
// client-facing response: no failure path should expose implementation
// details in the response body.
func Wrap(code CodeError, cause error, msg string) Error {
	return &ers{code: code, msg: msg, prnt: cause}
}

func (e *ers) Error() string {
	if e.prnt != nil {
		return e.msg + ": " + e.prnt.Error()
	}
	return e.msg
}

func (e *ers) Code() CodeError {
	return e.code
}

func (e *ers) Resource() string {
	return e.res
}

// WithResource attaches the bucket/key scope so the rendered <Error>
// document carries a <Resource> element: include it when a bucket/key
// scope is known, otherwise emit "/".
func (e *ers) WithResource(resource string) Error {
	return &ers{code: e.code, msg: e.msg, res: resource, prnt: e.prnt}
}

func (e *ers) Add(parent ...error) Error {
	n := &ers{code: e.code, msg: e.msg, res: e.res, prnt: e.prnt}
	for _, p := range parent {
		if p == nil {
			continue
		}
		if n.prnt == nil {
			n.prnt = p
		} else {
			n.prnt = &joined{first: n.prnt, second: p}
		}
	}
	return n
}

func (e *ers) Parent() error {
	return e.prnt
}

func (e *ers) Unwrap() error {
	return e.prnt
}

func (e *ers) Is(target error) bool {
	var o *ers
	if errors.As(target, &o) {
		return e.code == o.code
	}
	return target != nil && strings.EqualFold(e.Error(), target.Error())
}

type joined struct {
	first, second error
}

func (j *joined) Error() string {
	return j.first.Error() + "; " + j.second.Error()
}

func (j *joined) Unwrap() []error {
	return []error{j.first, j.second}
}

// CodeOf extracts the CodeError from err if it is (or wraps) an Error,
// defaulting to Internal for anything else — used at every boundary
// that must map an arbitrary error into an S3 response code.
func CodeOf(err error) CodeError {
	var e Error
	if errors.As(err, &e) {
		return e.Code()
	}
	return Internal
}

// ResourceOf extracts the resource string of err, or "/" when unknown.
func ResourceOf(err error) string {
	var e Error
	if errors.As(err, &e) {
		if r := e.Resource(); r != "" {
			return r
		}
	}
	return "/"
}
