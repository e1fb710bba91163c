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

// Package reqctx normalizes a single inbound HTTP request into the shape
// the SigV4 authenticator and dispatcher need: uppercase method, a
// byte-exact decoded path, the raw query string verbatim (the
// authenticator re-derives its own canonical query from this, it must
// never see an already-reordered map), lowercased header names, and the
// effective scheme/host. A plain value type rather than a gin.Context
// grab-bag, so sigv4 and dispatcher do not need to import gin.
package reqctx

import (
	"net/http"
	"strings"
)

// Context is an immutable snapshot of one inbound request.
type Context struct {
	Method     string
	Path       string
	RawQuery   string
	Query      map[string][]string
	headers    map[string][]string
	Host       string
	Scheme     string
	ServerName string
	ServerPort string
}

// FromHTTPRequest builds a Context from a standard library request.
// serverName and serverPort are the embedding server's own identity,
// used only for the ALLOW_HOST_CANDIDATE_FALLBACKS path.
func FromHTTPRequest(r *http.Request, serverName, serverPort string) *Context {
	h := make(map[string][]string, len(r.Header))
	for k, v := range r.Header {
		h[strings.ToLower(k)] = v
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	} else if strings.EqualFold(firstHeader(h, "x-forwarded-proto"), "https") {
		scheme = "https"
	}

	return &Context{
		Method:     strings.ToUpper(r.Method),
		Path:       r.URL.Path,
		RawQuery:   r.URL.RawQuery,
		Query:      map[string][]string(r.URL.Query()),
		headers:    h,
		Host:       r.Host,
		Scheme:     scheme,
		ServerName: serverName,
		ServerPort: serverPort,
	}
}

func firstHeader(h map[string][]string, name string) string {
	v := h[strings.ToLower(name)]
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// Header returns the first header value as received — no trimming. The
// authenticator is responsible for trimming/collapsing whitespace during
// canonicalization, not during retrieval.
func (c *Context) Header(name string) string {
	return firstHeader(c.headers, name)
}

// HeaderValues returns all values for name, in received order, untrimmed.
func (c *Context) HeaderValues(name string) []string {
	return c.headers[strings.ToLower(name)]
}

// HeaderPresent reports whether name was sent at all, distinguishing an
// absent header from one sent with an empty value.
func (c *Context) HeaderPresent(name string) bool {
	_, ok := c.headers[strings.ToLower(name)]
	return ok
}

// QueryValue returns the first decoded value for a query key, or "" with
// ok=false if absent. Used for flag checks (uploadId, partNumber, ...).
func (c *Context) QueryValue(key string) (string, bool) {
	v, ok := c.Query[key]
	if !ok || len(v) == 0 {
		return "", ok
	}
	return v[0], true
}

// HasQuery reports whether key is present at all (value may be empty),
// for presence-only flags like ?uploads or ?delete.
func (c *Context) HasQuery(key string) bool {
	_, ok := c.Query[key]
	return ok
}
