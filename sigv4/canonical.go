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
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// awsEncode percent-encodes s keeping the unreserved set
// A-Z a-z 0-9 - _ . ~ literal, matching AWS's rawurlencode convention
// (which differs from net/url's QueryEscape in how it treats "~").
func awsEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('%')
			const hex = "0123456789ABCDEF"
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xF])
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	}
	return false
}

// canonicalURI splits on "/", URL-decodes each segment once,
// AWS-percent-encodes each segment, and rejoins with "/".
func canonicalURI(path string) string {
	if path == "" {
		return "/"
	}
	segs := strings.Split(path, "/")
	for i, s := range segs {
		decoded, err := url.PathUnescape(s)
		if err != nil {
			decoded = s
		}
		segs[i] = awsEncode(decoded)
	}
	joined := strings.Join(segs, "/")
	if !strings.HasPrefix(joined, "/") {
		joined = "/" + joined
	}
	return joined
}

type queryPair struct {
	encKey, encVal string
}

// canonicalQuery parses the raw query string into ordered pairs, decodes
// once, AWS-percent-encodes both key and value, drops X-Amz-Signature
// for presigned requests, sorts by encoded key then encoded value, and
// joins as key=value with "&".
func canonicalQuery(rawQuery string, dropSignature bool) string {
	if rawQuery == "" {
		return ""
	}

	var pairs []queryPair
	for _, kv := range strings.Split(rawQuery, "&") {
		if kv == "" {
			continue
		}
		var rawKey, rawVal string
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			rawKey, rawVal = kv[:idx], kv[idx+1:]
		} else {
			rawKey = kv
		}

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			key = rawKey
		}
		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			val = rawVal
		}

		if dropSignature && key == "X-Amz-Signature" {
			continue
		}

		pairs = append(pairs, queryPair{encKey: awsEncode(key), encVal: awsEncode(val)})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].encKey != pairs[j].encKey {
			return pairs[i].encKey < pairs[j].encKey
		}
		return pairs[i].encVal < pairs[j].encVal
	})

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.encKey + "=" + p.encVal
	}
	return strings.Join(parts, "&")
}

// collapseWhitespace trims and folds internal whitespace runs to a
// single space, as canonical-header normalization requires.
func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// headerLookup resolves the value for a signed header name, special-
// casing "host" to use the chosen host candidate instead of whatever the
// Host header literally says.
type headerLookup func(name string) (string, bool)

func canonicalHeaders(signedHeaders []string, lookup headerLookup) (string, bool) {
	var b strings.Builder
	for _, name := range signedHeaders {
		v, ok := lookup(name)
		if !ok {
			return "", false
		}
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(collapseWhitespace(v))
		b.WriteByte('\n')
	}
	return b.String(), true
}

// CanonicalRequest holds the pieces assembled into the signature input.
type CanonicalRequest struct {
	Method        string
	URI           string
	Query         string
	Headers       string
	SignedHeaders string
	PayloadHash   string
}

func (c CanonicalRequest) String() string {
	return strings.Join([]string{
		c.Method,
		c.URI,
		c.Query,
		c.Headers,
		c.SignedHeaders,
		c.PayloadHash,
	}, "\n")
}

func (c CanonicalRequest) Hash() string {
	sum := sha256.Sum256([]byte(c.String()))
	return hex.EncodeToString(sum[:])
}

// StringToSign builds the string-to-sign from the signing algorithm,
// amzDate, credential scope, and canonical request hash.
func StringToSign(amzDate string, scope Scope, canonicalRequestHash string) string {
	return strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		scope.String(),
		canonicalRequestHash,
	}, "\n")
}
