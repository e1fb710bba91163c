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

// Package validate implements the bucket-name, object-key and
// part-number syntactic checks. Bucket and key rules are registered as
// custom go-playground/validator/v10 tags ("s3bucket", "s3key") on a
// shared engine; Bucket and Key run every call through that engine
// rather than checking the predicates directly.
package validate

import (
	"net/netip"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var bucketPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[a-z0-9]$`)

// engine is the shared validator.Validate instance every Bucket/Key call
// goes through, so the "s3bucket"/"s3key" tags stay the single source of
// truth for both ad-hoc calls here and any struct carrying those tags.
var engine = func() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("s3bucket", bucketValidationFunc)
	_ = v.RegisterValidation("s3key", keyValidationFunc)
	return v
}()

func bucketValidationFunc(fl validator.FieldLevel) bool {
	return isValidBucketName(fl.Field().String())
}

func keyValidationFunc(fl validator.FieldLevel) bool {
	return isValidKey(fl.Field().String())
}

// isValidBucketName holds the actual syntactic checks: length 3..63, the
// dotted-label regex, no "..", ".-" or "-.", and must not parse as an
// IPv4 or IPv6 literal.
func isValidBucketName(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if !bucketPattern.MatchString(name) {
		return false
	}
	if strings.Contains(name, "..") || strings.Contains(name, ".-") || strings.Contains(name, "-.") {
		return false
	}
	if _, err := netip.ParseAddr(name); err == nil {
		return false
	}
	return true
}

// isValidKey holds the actual object-key checks: no NUL byte, no "." or
// ".." segment.
func isValidKey(key string) bool {
	if strings.IndexByte(key, 0) >= 0 {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

// Bucket reports whether name is a syntactically valid S3 bucket name,
// by running it through the registered "s3bucket" validator tag.
func Bucket(name string) bool {
	return engine.Var(name, "s3bucket") == nil
}

// Key reports whether key is a syntactically valid object key, by
// running it through the registered "s3key" validator tag. Empty is
// allowed (bucket-level operations); isValidKey treats it as valid.
func Key(key string) bool {
	return engine.Var(key, "s3key") == nil
}

// PartNumber reports whether s is a valid multipart part number: a
// positive decimal integer >= 1, no sign, no leading plus. Leading zeros
// are accepted ("01" is part 1); "0" is rejected.
func PartNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
