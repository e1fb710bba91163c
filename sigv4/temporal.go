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
	"strconv"
	"time"

	liberr "github.com/sabouaram/s3fsgw/errors"
)

const amzDateLayout = "20060102T150405Z"

// ParseAmzDate parses the X-Amz-Date / x-amz-date value:
// YYYYMMDDTHHMMSSZ in UTC.
func ParseAmzDate(value string) (time.Time, bool) {
	t, err := time.Parse(amzDateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// checkHeaderSignedSkew enforces, for header-signed requests, that
// |now - amzDate| must be <= clockSkew.
func checkHeaderSignedSkew(now, amzDate time.Time, clockSkew time.Duration) error {
	delta := now.Sub(amzDate)
	if delta < 0 {
		delta = -delta
	}
	if delta > clockSkew {
		return liberr.New(liberr.ClockSkew, "request time too skewed")
	}
	return nil
}

// checkPresignWindow enforces the expiry window for presigned requests.
func checkPresignWindow(now, amzDate time.Time, expiresStr string, clockSkew time.Duration, maxExpires int64) error {
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil || expires < 1 || expires > maxExpires {
		return liberr.New(liberr.MalformedAuth, "invalid X-Amz-Expires")
	}

	if amzDate.After(now.Add(clockSkew)) {
		return liberr.New(liberr.ClockSkew, "request time too skewed")
	}
	if now.After(amzDate.Add(time.Duration(expires) * time.Second)) {
		return liberr.New(liberr.Expired, "presigned url expired")
	}
	return nil
}
