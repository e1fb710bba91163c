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

package errors

// CodeError classifies a failure the way the S3 error taxonomy does: a
// stable symbolic code, the wire-level S3 error code, and the HTTP status
// it maps to. Unlike a raw HTTP status, the same status can carry several
// distinct CodeError values (403 covers five different auth failures).
type CodeError uint16

const (
	UnknownError CodeError = iota

	// Authentication
	MissingCredentials
	UnknownAccessKey
	SignatureMismatch
	MalformedAuth
	ClockSkew
	Expired

	// Request shape
	InvalidBucket
	InvalidKey
	InvalidPartNumber
	MalformedXMLBody
	InvalidRequestShape
	TooLarge
	MethodNotAllowed

	// Resource
	NoObject
	NoUpload

	// Range
	RangeNotSatisfiable

	// Server
	Internal
)

type codeInfo struct {
	s3Code string
	status int
}

var registry = map[CodeError]codeInfo{
	UnknownError:        {"InternalError", 500},
	MissingCredentials:  {"AccessDenied", 403},
	UnknownAccessKey:    {"InvalidAccessKeyId", 403},
	SignatureMismatch:   {"SignatureDoesNotMatch", 403},
	MalformedAuth:       {"AuthorizationQueryParametersError", 400},
	ClockSkew:           {"RequestTimeTooSkewed", 403},
	Expired:             {"ExpiredToken", 403},
	InvalidBucket:       {"InvalidBucketName", 400},
	InvalidKey:          {"InvalidObjectKey", 400},
	InvalidPartNumber:   {"InvalidPart", 400},
	MalformedXMLBody:    {"MalformedXML", 400},
	InvalidRequestShape: {"InvalidRequest", 400},
	TooLarge:            {"EntityTooLarge", 413},
	MethodNotAllowed:    {"MethodNotAllowed", 405},
	NoObject:            {"NoSuchKey", 404},
	NoUpload:            {"NoSuchUpload", 404},
	RangeNotSatisfiable: {"", 416},
	Internal:            {"InternalError", 500},
}

// S3Code returns the wire-level <Code> element value for this CodeError.
// RangeNotSatisfiable has no S3 code; the dispatcher never renders an
// <Error> body for it (spec: "HTTP 416 with Content-Range", no XML).
func (c CodeError) S3Code() string {
	if i, ok := registry[c]; ok {
		return i.s3Code
	}
	return "InternalError"
}

// HTTPStatus returns the HTTP status code this CodeError maps to.
func (c CodeError) HTTPStatus() int {
	if i, ok := registry[c]; ok {
		return i.status
	}
	return 500
}

func (c CodeError) Uint16() uint16 {
	return uint16(c)
}
