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

// Package dispatcher implements the S3 request router: the (method,
// queryFlags, keyEmpty) routing table, pre-route validation, and the
// single response-emitting point that turns an errors.Error into an
// XML body. Built on gin-gonic/gin.
package dispatcher

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	liberr "github.com/sabouaram/s3fsgw/errors"
	"github.com/sabouaram/s3fsgw/reqctx"
	"github.com/sabouaram/s3fsgw/sigv4"
	"github.com/sabouaram/s3fsgw/storage"
	"github.com/sabouaram/s3fsgw/validate"
	"github.com/sabouaram/s3fsgw/xmlenc"
)

// AccessLogger receives one structured entry per handled request. The
// daemon supplies a logger.MultiAccess over the logger and the metrics
// recorder; nil is a valid no-op for tests.
type AccessLogger interface {
	Access(method, path string, status int, bytes int64, d time.Duration)
}

// Dispatcher holds everything a request handler needs: the storage
// engine, the authenticator, and the declared request-size ceiling.
type Dispatcher struct {
	engine         *storage.Engine
	auth           *sigv4.Authenticator
	maxRequestSize int64
	serverName     string
	serverPort     string
	access         AccessLogger
}

// New builds a Dispatcher. maxRequestSize is MAX_REQUEST_SIZE;
// serverName/serverPort feed the authenticator's
// ALLOW_HOST_CANDIDATE_FALLBACKS path.
func New(engine *storage.Engine, auth *sigv4.Authenticator, maxRequestSize int64, serverName, serverPort string, access AccessLogger) *Dispatcher {
	return &Dispatcher{
		engine:         engine,
		auth:           auth,
		maxRequestSize: maxRequestSize,
		serverName:     serverName,
		serverPort:     serverPort,
		access:         access,
	}
}

// Router builds the gin.Engine that mounts every route this Dispatcher
// handles onto a single catch-all path. gin's own routing does not
// distinguish "PUT with query X" from "PUT without", so the method
// table is evaluated inside handle, not via gin route registration —
// disambiguating requests is this package's job, not the transport's.
func (d *Dispatcher) Router() *gin.Engine {
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.HandleMethodNotAllowed = false
	r.Any("/*path", d.handle)
	return r
}

func (d *Dispatcher) handle(c *gin.Context) {
	start := time.Now()
	rc := reqctx.FromHTTPRequest(c.Request, d.serverName, d.serverPort)

	status := d.dispatch(c, rc)

	if d.access != nil {
		d.access.Access(rc.Method, rc.Path, status, int64(c.Writer.Size()), time.Since(start))
	}
}

// dispatch runs pre-route checks, authenticates, routes by method and
// query flags, and returns the HTTP status it wrote so the caller can
// log it.
func (d *Dispatcher) dispatch(c *gin.Context, rc *reqctx.Context) int {
	bucket, key, ok := splitPath(rc.Path)
	if !ok {
		return writeError(c, liberr.New(liberr.InvalidRequestShape, "empty path"))
	}

	if !validate.Bucket(bucket) {
		return writeError(c, liberr.New(liberr.InvalidBucket, "invalid bucket name").WithResource("/"+bucket))
	}
	if !validate.Key(key) {
		return writeError(c, liberr.New(liberr.InvalidKey, "invalid object key").WithResource("/"+bucket+"/"+key))
	}

	if cl := rc.Header("content-length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil && d.maxRequestSize > 0 && n > d.maxRequestSize {
			return writeError(c, liberr.New(liberr.TooLarge, "request too large"))
		}
	}

	if err := d.auth.Authenticate(rc); err != nil {
		return writeError(c, err)
	}

	_, hasUploadID := rc.QueryValue("uploadId")
	_, hasPartNumber := rc.QueryValue("partNumber")
	hasDelete := rc.HasQuery("delete")
	hasUploads := rc.HasQuery("uploads")
	keyEmpty := key == ""

	switch rc.Method {
	case http.MethodPut:
		if hasUploadID && hasPartNumber {
			return d.uploadPart(c, rc, bucket, key)
		}
		return d.putObject(c, bucket, key)

	case http.MethodPost:
		switch {
		case hasDelete:
			return d.bulkDelete(c, bucket)
		case hasUploads:
			return d.initiateMultipart(c, bucket, key)
		case hasUploadID:
			return d.completeMultipart(c, rc, bucket, key)
		default:
			return writeError(c, liberr.New(liberr.InvalidRequestShape, "unrecognized POST"))
		}

	case http.MethodGet:
		if keyEmpty {
			return d.listObjects(c, rc, bucket)
		}
		return d.getObject(c, rc, bucket, key)

	case http.MethodHead:
		if keyEmpty {
			return writeError(c, liberr.New(liberr.InvalidRequestShape, "HEAD requires a key"))
		}
		return d.headObject(c, bucket, key)

	case http.MethodDelete:
		if hasUploadID {
			return d.abortMultipart(c, rc, bucket, key)
		}
		return d.deleteObject(c, bucket, key)

	default:
		return writeError(c, liberr.New(liberr.MethodNotAllowed, "method not allowed"))
	}
}

// splitPath trims the leading "/", splits on "/" and URL-decodes each
// segment. Segment 0 is the bucket, everything after the first "/"
// joined back together is the key.
func splitPath(path string) (bucket, key string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "", "", false
	}
	idx := strings.IndexByte(trimmed, '/')
	if idx < 0 {
		return decodeSegment(trimmed), "", true
	}
	return decodeSegment(trimmed[:idx]), decodeKeySegments(trimmed[idx+1:]), true
}

func decodeSegment(s string) string {
	d, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return d
}

func decodeKeySegments(s string) string {
	parts := strings.Split(s, "/")
	for i, p := range parts {
		parts[i] = decodeSegment(p)
	}
	return strings.Join(parts, "/")
}

func writeError(c *gin.Context, err error) int {
	code := liberr.CodeOf(err)
	status := code.HTTPStatus()
	resource := liberr.ResourceOf(err)
	c.Data(status, xmlenc.ContentType, xmlenc.EncodeError(code.S3Code(), code.S3Code(), resource))
	return status
}
