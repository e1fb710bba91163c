package sigv4

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	liberr "github.com/sabouaram/s3fsgw/errors"
	"github.com/sabouaram/s3fsgw/reqctx"
)

type memCreds map[string]string

func (m memCreds) SecretKey(accessKeyID string) (string, bool) {
	s, ok := m[accessKeyID]
	return s, ok
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newCtx(method, target string, headers map[string]string) *reqctx.Context {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return reqctx.FromHTTPRequest(req, "s3fsgw.local", "9000")
}

// buildCanonicalRequest mirrors exactly what tryHostCandidates computes,
// so tests can derive a signature for a request before constructing it.
func buildCanonicalRequest(c *reqctx.Context, signedHeaders []string, amzDate, payloadHash string, presigned bool, host string) CanonicalRequest {
	lookup := func(name string) (string, bool) {
		if name == "host" {
			return host, true
		}
		if !c.HeaderPresent(name) {
			return "", false
		}
		return c.Header(name), true
	}
	headers, _ := canonicalHeaders(signedHeaders, lookup)
	return CanonicalRequest{
		Method:        c.Method,
		URI:           canonicalURI(c.Path),
		Query:         canonicalQuery(c.RawQuery, presigned),
		Headers:       headers,
		SignedHeaders: joinSemicolon(signedHeaders),
		PayloadHash:   payloadHash,
	}
}

func joinSemicolon(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ";"
		}
		out += s
	}
	return out
}

func TestHeaderSignedDeterministicRoundTrip(t *testing.T) {
	const secret = "topsecret"
	scope := Scope{AccessKeyID: "AKIDEXAMPLE", Date: "20260801", Region: "us-east-1", Service: "s3"}
	amzDate := "20260801T120000Z"
	const payloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	c := newCtx(http.MethodGet, "http://s3fsgw.local/bucket/key", map[string]string{
		"x-amz-date":           amzDate,
		"x-amz-content-sha256": payloadHash,
		"host":                 "s3fsgw.local",
	})
	signedHeaders := []string{"host", "x-amz-content-sha256", "x-amz-date"}
	cr := buildCanonicalRequest(c, signedHeaders, amzDate, payloadHash, false, "s3fsgw.local")
	sts := StringToSign(amzDate, scope, cr.Hash())
	sig := Signature(SigningKey(secret, scope), sts)

	authz := "AWS4-HMAC-SHA256 Credential=" + scope.String() + ", SignedHeaders=" + joinSemicolon(signedHeaders) + ", Signature=" + sig
	c2 := newCtx(http.MethodGet, "http://s3fsgw.local/bucket/key", map[string]string{
		"x-amz-date":           amzDate,
		"x-amz-content-sha256": payloadHash,
		"host":                 "s3fsgw.local",
		"authorization":        authz,
	})

	clock, _ := time.Parse(amzDateLayout, amzDate)
	auth := New(memCreds{"AKIDEXAMPLE": secret}, Config{ClockSkew: 15 * time.Minute}).WithClock(fixedClock(clock))

	if err := auth.Authenticate(c2); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestHeaderSignedWrongSignatureIsMismatch(t *testing.T) {
	const secret = "topsecret"
	scope := Scope{AccessKeyID: "AKIDEXAMPLE", Date: "20260801", Region: "us-east-1", Service: "s3"}
	amzDate := "20260801T120000Z"

	authz := "AWS4-HMAC-SHA256 Credential=" + scope.String() + ", SignedHeaders=host;x-amz-date, Signature=deadbeef0"
	c := newCtx(http.MethodGet, "http://s3fsgw.local/bucket/key", map[string]string{
		"x-amz-date":           amzDate,
		"x-amz-content-sha256": "x",
		"host":                 "s3fsgw.local",
		"authorization":        authz,
	})

	clock, _ := time.Parse(amzDateLayout, amzDate)
	auth := New(memCreds{"AKIDEXAMPLE": secret}, Config{ClockSkew: 15 * time.Minute}).WithClock(fixedClock(clock))

	err := auth.Authenticate(c)
	if liberr.CodeOf(err) != liberr.SignatureMismatch {
		t.Fatalf("err = %v, want SignatureMismatch", err)
	}
}

func TestHeaderSignedUnknownAccessKey(t *testing.T) {
	scope := Scope{AccessKeyID: "NOBODY", Date: "20260801", Region: "us-east-1", Service: "s3"}
	amzDate := "20260801T120000Z"

	authz := "AWS4-HMAC-SHA256 Credential=" + scope.String() + ", SignedHeaders=host;x-amz-date, Signature=abc"
	c := newCtx(http.MethodGet, "http://s3fsgw.local/bucket/key", map[string]string{
		"x-amz-date":    amzDate,
		"host":          "s3fsgw.local",
		"authorization": authz,
	})

	auth := New(memCreds{}, Config{ClockSkew: 15 * time.Minute})
	err := auth.Authenticate(c)
	if liberr.CodeOf(err) != liberr.UnknownAccessKey {
		t.Fatalf("err = %v, want UnknownAccessKey", err)
	}
}

func TestHeaderSignedClockSkewRejected(t *testing.T) {
	const secret = "topsecret"
	scope := Scope{AccessKeyID: "AKIDEXAMPLE", Date: "20260801", Region: "us-east-1", Service: "s3"}
	amzDate := "20260801T120000Z"

	authz := "AWS4-HMAC-SHA256 Credential=" + scope.String() + ", SignedHeaders=host;x-amz-date, Signature=abc"
	c := newCtx(http.MethodGet, "http://s3fsgw.local/bucket/key", map[string]string{
		"x-amz-date":           amzDate,
		"x-amz-content-sha256": "x",
		"host":                 "s3fsgw.local",
		"authorization":        authz,
	})

	farFuture, _ := time.Parse(amzDateLayout, "20260801T140000Z") // 2h after amzDate
	auth := New(memCreds{"AKIDEXAMPLE": secret}, Config{ClockSkew: 15 * time.Minute}).WithClock(fixedClock(farFuture))

	err := auth.Authenticate(c)
	if liberr.CodeOf(err) != liberr.ClockSkew {
		t.Fatalf("err = %v, want ClockSkew", err)
	}
}

func TestPresignedExpired(t *testing.T) {
	const secret = "topsecret"
	scope := Scope{AccessKeyID: "AKIDEXAMPLE", Date: "20260801", Region: "us-east-1", Service: "s3"}
	amzDate := "20260801T120000Z"

	unsignedTarget := "http://s3fsgw.local/bucket/key?X-Amz-Algorithm=AWS4-HMAC-SHA256&X-Amz-Credential=" + scope.String() +
		"&X-Amz-Date=" + amzDate + "&X-Amz-Expires=1&X-Amz-SignedHeaders=host"
	c0 := newCtx(http.MethodGet, unsignedTarget, map[string]string{"host": "s3fsgw.local"})
	cr := buildCanonicalRequest(c0, []string{"host"}, amzDate, "UNSIGNED-PAYLOAD", true, "s3fsgw.local")
	sts := StringToSign(amzDate, scope, cr.Hash())
	sig := Signature(SigningKey(secret, scope), sts)

	target := unsignedTarget + "&X-Amz-Signature=" + sig
	c := newCtx(http.MethodGet, target, map[string]string{"host": "s3fsgw.local"})

	future, _ := time.Parse(amzDateLayout, "20260801T130000Z")
	auth := New(memCreds{"AKIDEXAMPLE": secret}, Config{ClockSkew: 15 * time.Minute, MaxPresignExpires: 604800}).WithClock(fixedClock(future))

	err := auth.Authenticate(c)
	if liberr.CodeOf(err) != liberr.Expired {
		t.Fatalf("err = %v, want Expired", err)
	}
}

func TestPresignedValidSignatureAccepted(t *testing.T) {
	const secret = "topsecret"
	scope := Scope{AccessKeyID: "AKIDEXAMPLE", Date: "20260801", Region: "us-east-1", Service: "s3"}
	amzDate := "20260801T120000Z"

	unsignedTarget := "http://s3fsgw.local/bucket/key?X-Amz-Algorithm=AWS4-HMAC-SHA256&X-Amz-Credential=" + scope.String() +
		"&X-Amz-Date=" + amzDate + "&X-Amz-Expires=3600&X-Amz-SignedHeaders=host"
	c0 := newCtx(http.MethodGet, unsignedTarget, map[string]string{"host": "s3fsgw.local"})
	cr := buildCanonicalRequest(c0, []string{"host"}, amzDate, "UNSIGNED-PAYLOAD", true, "s3fsgw.local")
	sts := StringToSign(amzDate, scope, cr.Hash())
	sig := Signature(SigningKey(secret, scope), sts)

	target := unsignedTarget + "&X-Amz-Signature=" + sig
	c := newCtx(http.MethodGet, target, map[string]string{"host": "s3fsgw.local"})

	clock, _ := time.Parse(amzDateLayout, amzDate)
	auth := New(memCreds{"AKIDEXAMPLE": secret}, Config{ClockSkew: 15 * time.Minute, MaxPresignExpires: 604800}).WithClock(fixedClock(clock))

	if err := auth.Authenticate(c); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestHostStrictnessRejectsForwardedHostWithoutFallbackFlag(t *testing.T) {
	const secret = "topsecret"
	scope := Scope{AccessKeyID: "AKIDEXAMPLE", Date: "20260801", Region: "us-east-1", Service: "s3"}
	amzDate := "20260801T120000Z"
	signedOverHost := "proxy.example.com"

	c0 := newCtx(http.MethodGet, "http://actual-host.internal/bucket/key", map[string]string{
		"x-amz-date":           amzDate,
		"x-amz-content-sha256": "x",
		"host":                 "actual-host.internal",
	})
	cr := buildCanonicalRequest(c0, []string{"host"}, amzDate, "x", false, signedOverHost)
	sts := StringToSign(amzDate, scope, cr.Hash())
	sig := Signature(SigningKey(secret, scope), sts)

	authz := "AWS4-HMAC-SHA256 Credential=" + scope.String() + ", SignedHeaders=host, Signature=" + sig
	c := newCtx(http.MethodGet, "http://actual-host.internal/bucket/key", map[string]string{
		"x-amz-date":           amzDate,
		"x-amz-content-sha256": "x",
		"host":                 "actual-host.internal",
		"x-forwarded-host":     signedOverHost,
		"authorization":        authz,
	})

	clock, _ := time.Parse(amzDateLayout, amzDate)
	auth := New(memCreds{"AKIDEXAMPLE": secret}, Config{ClockSkew: 15 * time.Minute, AllowHostCandidateFallbacks: false}).WithClock(fixedClock(clock))

	err := auth.Authenticate(c)
	if liberr.CodeOf(err) != liberr.SignatureMismatch {
		t.Fatalf("err = %v, want SignatureMismatch (strict host mode)", err)
	}
}

func TestCanonicalURIEncodesReservedCharacters(t *testing.T) {
	got := canonicalURI("/my bucket/a+b.txt")
	want := "/my%20bucket/a%2Bb.txt"
	if got != want {
		t.Fatalf("canonicalURI = %q, want %q", got, want)
	}
}

func TestCanonicalQueryExcludesSignatureWhenPresigned(t *testing.T) {
	got := canonicalQuery("X-Amz-Signature=abc&X-Amz-Expires=60&prefix=a%2Fb", true)
	want := "X-Amz-Expires=60&prefix=a%2Fb"
	if got != want {
		t.Fatalf("canonicalQuery = %q, want %q", got, want)
	}
}

func TestParseSignedHeadersRejectsUnsorted(t *testing.T) {
	if _, ok := ParseSignedHeaders("x-amz-date;host"); ok {
		t.Fatal("expected rejection of unsorted header list")
	}
	if _, ok := ParseSignedHeaders("host;x-amz-date"); !ok {
		t.Fatal("expected acceptance of sorted header list")
	}
}

func TestParseScopeRejectsWrongService(t *testing.T) {
	if _, ok := ParseScope("AKID/20260801/us-east-1/ec2/aws4_request"); ok {
		t.Fatal("expected rejection of non-s3 service")
	}
}
