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

package sigv4

import (
	"regexp"
	"strings"
)

// Scope is a parsed SigV4 credential scope:
// <accessKeyId>/<date>/<region>/<service>/aws4_request.
type Scope struct {
	AccessKeyID string
	Date        string // YYYYMMDD
	Region      string
	Service     string
}

var dateShape = regexp.MustCompile(`^[0-9]{8}$`)

// ParseScope validates and splits a credential-scope string: reject if
// the shape is wrong, service != "s3", terminal != "aws4_request", or
// the date is not 8 digits.
func ParseScope(credential string) (Scope, bool) {
	parts := strings.Split(credential, "/")
	if len(parts) != 5 {
		return Scope{}, false
	}
	accessKey, date, region, service, terminal := parts[0], parts[1], parts[2], parts[3], parts[4]

	if accessKey == "" || region == "" {
		return Scope{}, false
	}
	if !dateShape.MatchString(date) {
		return Scope{}, false
	}
	if service != "s3" {
		return Scope{}, false
	}
	if terminal != "aws4_request" {
		return Scope{}, false
	}

	return Scope{AccessKeyID: accessKey, Date: date, Region: region, Service: service}, true
}

func (s Scope) String() string {
	return s.AccessKeyID + "/" + s.Date + "/" + s.Region + "/" + s.Service + "/aws4_request"
}

var headerNameShape = regexp.MustCompile(`^[a-z0-9-]+$`)

// ParseSignedHeaders validates the SignedHeaders value: non-empty,
// semicolon-separated, each matching ^[a-z0-9-]+$, unique, and already
// sorted ascending. Any deviation is a caller error.
func ParseSignedHeaders(value string) ([]string, bool) {
	if value == "" {
		return nil, false
	}
	names := strings.Split(value, ";")
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		if !headerNameShape.MatchString(n) {
			return nil, false
		}
		if seen[n] {
			return nil, false
		}
		seen[n] = true
		if i > 0 && names[i-1] >= n {
			return nil, false
		}
	}
	return names, true
}
