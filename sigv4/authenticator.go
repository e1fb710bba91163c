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

// Package sigv4 authenticates inbound requests against AWS Signature
// Version 4, for both header-signed and presigned entry paths.
package sigv4

import (
	"strings"
	"time"

	liberr "github.com/sabouaram/s3fsgw/errors"
	"github.com/sabouaram/s3fsgw/reqctx"
)

// CredentialStore resolves an access key to its secret, the sole trust
// input the authenticator needs.
type CredentialStore interface {
	SecretKey(accessKeyID string) (string, bool)
}

// Config mirrors the CLOCK_SKEW_SECONDS / MAX_PRESIGN_EXPIRES /
// ALLOW_HOST_CANDIDATE_FALLBACKS / ALLOW_LEGACY_ACCESS_KEY_ONLY /
// ALLOWED_ACCESS_KEYS configuration keys.
type Config struct {
	ClockSkew                   time.Duration
	MaxPresignExpires           int64
	AllowHostCandidateFallbacks bool
	AllowLegacyAccessKeyOnly    bool
	AllowedAccessKeys           map[string]bool
}

// Authenticator verifies SigV4 signatures for service "s3" against a
// caller-declared region (no region is fixed or enforced).
type Authenticator struct {
	creds CredentialStore
	cfg   Config
	now   func() time.Time
	trace func(candidateHost, canonicalRequestHash string)
}

// New builds an Authenticator. now defaults to time.Now; tests may
// override it via WithClock.
func New(creds CredentialStore, cfg Config) *Authenticator {
	return &Authenticator{creds: creds, cfg: cfg, now: time.Now}
}

// WithClock overrides the time source, for deterministic tests.
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	a.now = now
	return a
}

// WithTrace installs a callback invoked once per failed host-candidate
// attempt, the hook the AUTH_DEBUG_LOG wiring uses.
func (a *Authenticator) WithTrace(trace func(candidateHost, canonicalRequestHash string)) *Authenticator {
	a.trace = trace
	return a
}

type entryPath int

const (
	entryNone entryPath = iota
	entryPresigned
	entryHeaderSigned
)

func detectEntryPath(c *reqctx.Context) entryPath {
	_, hasAlgorithm := c.QueryValue("X-Amz-Algorithm")
	_, hasCredential := c.QueryValue("X-Amz-Credential")
	_, hasSignature := c.QueryValue("X-Amz-Signature")
	if hasAlgorithm || hasCredential || hasSignature {
		return entryPresigned
	}
	if strings.HasPrefix(c.Header("authorization"), "AWS4-HMAC-SHA256") {
		return entryHeaderSigned
	}
	return entryNone
}

// Authenticate runs the full entry-path selection and verification
// pipeline.
func (a *Authenticator) Authenticate(c *reqctx.Context) error {
	switch detectEntryPath(c) {
	case entryPresigned:
		return a.authenticatePresigned(c)
	case entryHeaderSigned:
		return a.authenticateHeaderSigned(c)
	default:
		if a.cfg.AllowLegacyAccessKeyOnly {
			if key := legacyAccessKey(c); key != "" && a.cfg.AllowedAccessKeys[key] {
				return nil
			}
		}
		return liberr.New(liberr.MissingCredentials, "no recognized authentication")
	}
}

// legacyAccessKey extracts an access key from whichever of the two
// legacy-auth locations is present: the query-string AWSAccessKeyId
// (old-style presigned URLs) or an "AWS <accessKeyId>:<signature>"
// Authorization header.
func legacyAccessKey(c *reqctx.Context) string {
	if v, ok := c.QueryValue("AWSAccessKeyId"); ok {
		return v
	}
	if authz := c.Header("authorization"); strings.HasPrefix(authz, "AWS ") {
		rest := strings.TrimPrefix(authz, "AWS ")
		if idx := strings.LastIndexByte(rest, ':'); idx > 0 {
			return rest[:idx]
		}
	}
	return ""
}

func (a *Authenticator) authenticateHeaderSigned(c *reqctx.Context) error {
	authz := c.Header("authorization")
	scope, signedHeaders, providedSig, ok := parseAuthorizationHeader(authz)
	if !ok {
		return liberr.New(liberr.MalformedAuth, "malformed Authorization header")
	}

	amzDate, ok := ParseAmzDate(firstNonEmpty(c.Header("x-amz-date"), c.Header("date")))
	if !ok {
		return liberr.New(liberr.MalformedAuth, "missing or malformed x-amz-date")
	}

	secret, ok := a.creds.SecretKey(scope.AccessKeyID)
	if !ok {
		return liberr.New(liberr.UnknownAccessKey, "unknown access key")
	}

	if err := checkHeaderSignedSkew(a.now(), amzDate, a.cfg.ClockSkew); err != nil {
		return err
	}

	payloadHash := c.Header("x-amz-content-sha256")
	if payloadHash == "" {
		return liberr.New(liberr.MalformedAuth, "missing x-amz-content-sha256")
	}

	amzDateStr := amzDate.Format(amzDateLayout)
	ok, err := a.tryHostCandidates(c, scope, signedHeaders, amzDateStr, payloadHash, false, secret, providedSig)
	if err != nil {
		return err
	}
	if !ok {
		return liberr.New(liberr.SignatureMismatch, "signature does not match")
	}
	return nil
}

func (a *Authenticator) authenticatePresigned(c *reqctx.Context) error {
	algorithm, _ := c.QueryValue("X-Amz-Algorithm")
	if algorithm != "AWS4-HMAC-SHA256" {
		return liberr.New(liberr.MalformedAuth, "unsupported X-Amz-Algorithm")
	}
	credential, hasCred := c.QueryValue("X-Amz-Credential")
	signedHeadersRaw, hasSH := c.QueryValue("X-Amz-SignedHeaders")
	providedSig, hasSig := c.QueryValue("X-Amz-Signature")
	amzDateRaw, hasDate := c.QueryValue("X-Amz-Date")
	expiresRaw, hasExpires := c.QueryValue("X-Amz-Expires")
	if !hasCred || !hasSH || !hasSig || !hasDate || !hasExpires {
		return liberr.New(liberr.MalformedAuth, "incomplete presigned query parameters")
	}

	scope, ok := ParseScope(credential)
	if !ok {
		return liberr.New(liberr.MalformedAuth, "malformed X-Amz-Credential")
	}
	signedHeaders, ok := ParseSignedHeaders(signedHeadersRaw)
	if !ok {
		return liberr.New(liberr.MalformedAuth, "malformed X-Amz-SignedHeaders")
	}
	amzDate, ok := ParseAmzDate(amzDateRaw)
	if !ok {
		return liberr.New(liberr.MalformedAuth, "malformed X-Amz-Date")
	}

	secret, ok := a.creds.SecretKey(scope.AccessKeyID)
	if !ok {
		return liberr.New(liberr.UnknownAccessKey, "unknown access key")
	}

	maxExpires := a.cfg.MaxPresignExpires
	if maxExpires <= 0 {
		maxExpires = 604800
	}
	if err := checkPresignWindow(a.now(), amzDate, expiresRaw, a.cfg.ClockSkew, maxExpires); err != nil {
		return err
	}

	ok, err := a.tryHostCandidates(c, scope, signedHeaders, amzDateRaw, "UNSIGNED-PAYLOAD", true, secret, providedSig)
	if err != nil {
		return err
	}
	if !ok {
		return liberr.New(liberr.SignatureMismatch, "signature does not match")
	}
	return nil
}

// tryHostCandidates builds the canonical request once per host
// candidate, accepting the first match.
func (a *Authenticator) tryHostCandidates(c *reqctx.Context, scope Scope, signedHeaders []string, amzDate, payloadHash string, presigned bool, secret, providedSig string) (bool, error) {
	needsHost := false
	for _, h := range signedHeaders {
		if h == "host" {
			needsHost = true
			break
		}
	}

	candidates := []string{""}
	if needsHost {
		candidates = hostCandidates(RequestHosts{
			Host:           c.Host,
			Scheme:         c.Scheme,
			ForwardedHost:  c.Header("x-forwarded-host"),
			ServerName:     c.ServerName,
			ServerPort:     c.ServerPort,
			AllowFallbacks: a.cfg.AllowHostCandidateFallbacks,
		})
		if len(candidates) == 0 {
			return false, nil
		}
	}

	signingKey := SigningKey(secret, scope)

	for _, hostCandidate := range candidates {
		lookup := func(name string) (string, bool) {
			if name == "host" {
				return hostCandidate, true
			}
			if !c.HeaderPresent(name) {
				return "", false
			}
			return c.Header(name), true
		}

		headers, ok := canonicalHeaders(signedHeaders, lookup)
		if !ok {
			return false, liberr.New(liberr.MissingCredentials, "missing signed header")
		}

		cr := CanonicalRequest{
			Method:        c.Method,
			URI:           canonicalURI(c.Path),
			Query:         canonicalQuery(c.RawQuery, presigned),
			Headers:       headers,
			SignedHeaders: strings.Join(signedHeaders, ";"),
			PayloadHash:   payloadHash,
		}

		sts := StringToSign(amzDate, scope, cr.Hash())
		computed := Signature(signingKey, sts)

		if signaturesEqual(computed, providedSig) {
			return true, nil
		}
		if a.trace != nil {
			a.trace(hostCandidate, cr.Hash())
		}
	}
	return false, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseAuthorizationHeader splits the header-signed Authorization value:
//
//	AWS4-HMAC-SHA256 Credential=<scope>, SignedHeaders=<names>, Signature=<sig>
func parseAuthorizationHeader(authz string) (scope Scope, signedHeaders []string, signature string, ok bool) {
	const prefix = "AWS4-HMAC-SHA256"
	if !strings.HasPrefix(authz, prefix) {
		return Scope{}, nil, "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(authz, prefix))

	fields := make(map[string]string)
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		idx := strings.IndexByte(part, '=')
		if idx < 0 {
			return Scope{}, nil, "", false
		}
		fields[part[:idx]] = part[idx+1:]
	}

	credential, hasCred := fields["Credential"]
	signedHeadersRaw, hasSH := fields["SignedHeaders"]
	sig, hasSig := fields["Signature"]
	if !hasCred || !hasSH || !hasSig {
		return Scope{}, nil, "", false
	}

	scope, ok = ParseScope(credential)
	if !ok {
		return Scope{}, nil, "", false
	}
	signedHeaders, ok = ParseSignedHeaders(signedHeadersRaw)
	if !ok {
		return Scope{}, nil, "", false
	}
	return scope, signedHeaders, sig, true
}
