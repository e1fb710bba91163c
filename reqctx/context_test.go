package reqctx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sabouaram/s3fsgw/reqctx"
)

func TestFromHTTPRequestLowercasesHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/bucket/key?partNumber=2&uploadId=abc", nil)
	r.Header.Set("X-Amz-Date", "20240101T000000Z")
	r.Header.Set("Host", "example.com")

	c := reqctx.FromHTTPRequest(r, "localhost", "9000")

	if c.Method != http.MethodGet {
		t.Fatalf("method = %q", c.Method)
	}
	if got := c.Header("x-amz-date"); got != "20240101T000000Z" {
		t.Fatalf("header lookup = %q", got)
	}
	if v, ok := c.QueryValue("partNumber"); !ok || v != "2" {
		t.Fatalf("partNumber = %q ok=%v", v, ok)
	}
	if !c.HasQuery("uploadId") {
		t.Fatalf("expected uploadId present")
	}
}

func TestHeaderRetrievalDoesNotTrim(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/b", nil)
	r.Header.Set("X-Custom", "  spaced value  ")
	c := reqctx.FromHTTPRequest(r, "", "")
	if got := c.Header("x-custom"); got != "  spaced value  " {
		t.Fatalf("expected untrimmed header, got %q", got)
	}
}
