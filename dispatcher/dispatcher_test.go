package dispatcher_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sabouaram/s3fsgw/dispatcher"
	"github.com/sabouaram/s3fsgw/sigv4"
	"github.com/sabouaram/s3fsgw/storage"
)

type memCreds map[string]string

func (m memCreds) SecretKey(accessKeyID string) (string, bool) {
	s, ok := m[accessKeyID]
	return s, ok
}

const (
	testAccessKey = "AKIDEXAMPLE"
	testSecretKey = "topsecret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *storage.Engine) {
	t.Helper()
	engine := storage.New(t.TempDir())
	clock, _ := time.Parse("20060102T150405Z", "20260801T120000Z")
	auth := sigv4.New(memCreds{testAccessKey: testSecretKey}, sigv4.Config{ClockSkew: 15 * time.Minute}).WithClock(func() time.Time { return clock })
	d := dispatcher.New(engine, auth, 0, "s3fsgw.local", "9000", nil)
	return d.Router(), engine
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// signRequest is a minimal SigV4 header-signer for tests: it signs only
// "host" and "x-amz-date"/"x-amz-content-sha256", which is sufficient for
// requests this suite issues.
func signRequest(req *http.Request, payloadHash string) {
	amzDate := "20260801T120000Z"
	date := amzDate[:8]
	req.Header.Set("x-amz-date", amzDate)
	req.Header.Set("x-amz-content-sha256", payloadHash)

	canonicalHeaders := "host:" + req.Host + "\nx-amz-content-sha256:" + payloadHash + "\nx-amz-date:" + amzDate + "\n"
	signedHeaders := "host;x-amz-content-sha256;x-amz-date"

	canonicalURI := req.URL.Path
	if canonicalURI == "" {
		canonicalURI = "/"
	}

	canonicalRequest := strings.Join([]string{
		req.Method,
		canonicalURI,
		canonicalQueryForTest(req.URL.RawQuery),
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	sum := sha256.Sum256([]byte(canonicalRequest))
	scope := date + "/us-east-1/s3/aws4_request"
	stringToSign := strings.Join([]string{"AWS4-HMAC-SHA256", amzDate, scope, hex.EncodeToString(sum[:])}, "\n")

	kDate := hmacSHA256([]byte("AWS4"+testSecretKey), []byte(date))
	kRegion := hmacSHA256(kDate, []byte("us-east-1"))
	kService := hmacSHA256(kRegion, []byte("s3"))
	kSigning := hmacSHA256(kService, []byte("aws4_request"))
	signature := hex.EncodeToString(hmacSHA256(kSigning, []byte(stringToSign)))

	req.Header.Set("authorization", "AWS4-HMAC-SHA256 Credential="+testAccessKey+"/"+scope+", SignedHeaders="+signedHeaders+", Signature="+signature)
}

// canonicalQueryForTest mirrors sigv4's unexported canonicalQuery closely
// enough for this suite's plain-ASCII, unsigned-param-free query strings:
// every key gets an explicit "=value" (empty if absent).
func canonicalQueryForTest(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	parts := strings.Split(rawQuery, "&")
	for i, p := range parts {
		if !strings.Contains(p, "=") {
			parts[i] = p + "="
		}
	}
	return strings.Join(parts, "&")
}

const emptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func sha256Hex(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

func TestPutThenGetRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t)

	const content = "hello integration test\n"
	putReq := httptest.NewRequest(http.MethodPut, "http://s3fsgw.local/itest/hello.txt", strings.NewReader(content))
	putReq.Host = "s3fsgw.local"
	signRequest(putReq, sha256Hex(content))
	putRec := httptest.NewRecorder()
	router.ServeHTTP(putRec, putReq)
	if putRec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", putRec.Code, putRec.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, "http://s3fsgw.local/itest/hello.txt", nil)
	getReq.Host = "s3fsgw.local"
	signRequest(getReq, emptyPayloadHash)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, body = %s", getRec.Code, getRec.Body.String())
	}
	if getRec.Body.String() != content {
		t.Fatalf("GET body = %q, want %q", getRec.Body.String(), content)
	}
}

func TestGetRangeRequest(t *testing.T) {
	router, engine := newTestRouter(t)
	if _, err := engine.PutObject("itest", "multi.bin", strings.NewReader("part-one-part-two")); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "http://s3fsgw.local/itest/multi.bin", nil)
	req.Host = "s3fsgw.local"
	req.Header.Set("Range", "bytes=0-3")
	signRequest(req, emptyPayloadHash)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "part" {
		t.Fatalf("body = %q, want %q", rec.Body.String(), "part")
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 0-3/17" {
		t.Fatalf("Content-Range = %q", got)
	}
}

func TestGetRangeOutOfBoundsIs416(t *testing.T) {
	router, engine := newTestRouter(t)
	if _, err := engine.PutObject("itest", "multi.bin", strings.NewReader("part-one-part-two")); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "http://s3fsgw.local/itest/multi.bin", nil)
	req.Host = "s3fsgw.local"
	req.Header.Set("Range", "bytes=99999-100000")
	signRequest(req, emptyPayloadHash)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes */17" {
		t.Fatalf("Content-Range = %q", got)
	}
}

func TestBulkDeleteMalformedXML(t *testing.T) {
	router, _ := newTestRouter(t)

	body := "<this is not xml>"
	req := httptest.NewRequest(http.MethodPost, "http://s3fsgw.local/itest/?delete", strings.NewReader(body))
	req.Host = "s3fsgw.local"
	signRequest(req, sha256Hex(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "MalformedXML") {
		t.Fatalf("body = %s, want MalformedXML", rec.Body.String())
	}
}

func TestInvalidSignatureIsRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "http://s3fsgw.local/itest/hello.txt", nil)
	req.Host = "s3fsgw.local"
	signRequest(req, emptyPayloadHash)
	req.Header.Set("authorization", req.Header.Get("authorization")+"0")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "SignatureDoesNotMatch") {
		t.Fatalf("body = %s, want SignatureDoesNotMatch", rec.Body.String())
	}
}

func TestMethodNotAllowedOnUnsupportedMethod(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPatch, "http://s3fsgw.local/itest/hello.txt", nil)
	req.Host = "s3fsgw.local"
	signRequest(req, emptyPayloadHash)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

// TestDoubleSlashPathRejectsEmptyBucket guards against a routing
// regression: gin is configured with RedirectTrailingSlash/RedirectFixedPath
// disabled so a leading "//" reaches splitPath verbatim, producing an empty
// bucket segment. That must be rejected as InvalidBucketName rather than
// falling through to a storage operation rooted at DATA_DIR itself.
func TestDoubleSlashPathRejectsEmptyBucket(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "http://s3fsgw.local//foo", nil)
	req.Host = "s3fsgw.local"
	signRequest(req, emptyPayloadHash)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "InvalidBucketName") {
		t.Fatalf("body = %s, want InvalidBucketName", rec.Body.String())
	}
}

// TestDoubleSlashPutIntoMultipartScratchIsRejected covers the more severe
// variant from the same bug class: a PUT whose empty bucket segment would
// otherwise land inside the reserved multipart scratch tree.
func TestDoubleSlashPutIntoMultipartScratchIsRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	const content = "x"
	req := httptest.NewRequest(http.MethodPut, "http://s3fsgw.local//.multipart/evil", strings.NewReader(content))
	req.Host = "s3fsgw.local"
	signRequest(req, sha256Hex(content))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "InvalidBucketName") {
		t.Fatalf("body = %s, want InvalidBucketName", rec.Body.String())
	}
}
