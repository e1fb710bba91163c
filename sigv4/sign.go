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
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// SigningKey runs the four-step derivation chain: kDate -> kRegion ->
// kService -> kSigning, seeded by "AWS4" + secret.
func SigningKey(secretAccessKey string, scope Scope) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretAccessKey), []byte(scope.Date))
	kRegion := hmacSHA256(kDate, []byte(scope.Region))
	kService := hmacSHA256(kRegion, []byte(scope.Service))
	kSigning := hmacSHA256(kService, []byte("aws4_request"))
	return kSigning
}

// Signature HMACs stringToSign with the derived signing key and returns
// the lowercase hex digest AWS uses as the request signature.
func Signature(signingKey []byte, stringToSign string) string {
	return hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))
}

// signaturesEqual compares in constant time so a timing side channel
// cannot be used to guess a valid signature byte by byte.
func signaturesEqual(computed, provided string) bool {
	if len(computed) != len(provided) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(provided)) == 1
}
