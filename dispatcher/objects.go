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

package dispatcher

import (
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/sabouaram/s3fsgw/reqctx"
	"github.com/sabouaram/s3fsgw/storage"
	"github.com/sabouaram/s3fsgw/xmlenc"
)

func (d *Dispatcher) putObject(c *gin.Context, bucket, key string) int {
	info, err := d.engine.PutObject(bucket, key, c.Request.Body)
	if err != nil {
		return writeError(c, err)
	}
	c.Header("ETag", info.ETag)
	c.Status(http.StatusOK)
	return http.StatusOK
}

func (d *Dispatcher) headObject(c *gin.Context, bucket, key string) int {
	info, err := d.engine.HeadObject(bucket, key)
	if err != nil {
		return writeError(c, err)
	}
	c.Header("Content-Length", fmt.Sprintf("%d", info.Size))
	c.Header("Accept-Ranges", "bytes")
	c.Status(http.StatusOK)
	return http.StatusOK
}

func (d *Dispatcher) deleteObject(c *gin.Context, bucket, key string) int {
	if err := d.engine.DeleteObject(bucket, key); err != nil {
		return writeError(c, err)
	}
	c.Status(http.StatusNoContent)
	return http.StatusNoContent
}

func (d *Dispatcher) listObjects(c *gin.Context, rc *reqctx.Context, bucket string) int {
	prefix, _ := rc.QueryValue("prefix")
	summaries, err := d.engine.ListObjects(bucket, prefix)
	if err != nil {
		return writeError(c, err)
	}
	objs := make([]xmlenc.ObjectSummary, 0, len(summaries))
	for _, s := range summaries {
		objs = append(objs, xmlenc.ObjectSummary{Key: s.Key, Size: s.Size, ModTime: s.ModTime})
	}
	body := xmlenc.EncodeListBucket(bucket, prefix, objs)
	c.Data(http.StatusOK, xmlenc.ContentType, body)
	return http.StatusOK
}

// getObject streams the object body, honoring an optional Range header,
// in chunks bounded by storage.StreamChunkSize so the whole object is
// never buffered in memory.
func (d *Dispatcher) getObject(c *gin.Context, rc *reqctx.Context, bucket, key string) int {
	f, info, err := d.engine.OpenObject(bucket, key)
	if err != nil {
		return writeError(c, err)
	}
	defer f.Close()

	c.Header("Accept-Ranges", "bytes")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, path.Base(key)))

	rangeHeader := rc.Header("range")
	recognized, start, end, valid := evaluateRange(rangeHeader, info.Size)
	if !recognized {
		c.Header("Content-Length", fmt.Sprintf("%d", info.Size))
		c.Status(http.StatusOK)
		streamChunked(c, f, info.Size)
		return http.StatusOK
	}
	if !valid {
		c.Header("Content-Range", fmt.Sprintf("bytes */%d", info.Size))
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return http.StatusRequestedRangeNotSatisfiable
	}

	length := end - start + 1
	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, info.Size))
	c.Header("Content-Length", fmt.Sprintf("%d", length))
	c.Status(http.StatusPartialContent)

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return http.StatusPartialContent
	}
	streamChunked(c, io.LimitReader(f, length), length)
	return http.StatusPartialContent
}

func streamChunked(c *gin.Context, r io.Reader, total int64) {
	buf := make([]byte, storage.StreamChunkSize)
	_, _ = io.CopyBuffer(c.Writer, r, buf)
}

// evaluateRange recognizes bytes=N-, bytes=N-M, and bytes=-N (suffix).
// recognized=false means the header matched none of these and must be
// ignored (full body, 200). recognized=true, valid=false means the
// numbers were out of bounds (416).
func evaluateRange(header string, size int64) (recognized bool, start, end int64, valid bool) {
	if s, e, ok := parseBoundedRange(header); ok {
		if s >= size || s > e {
			return true, 0, 0, false
		}
		if e >= size {
			e = size - 1
		}
		return true, s, e, true
	}
	if s, ok := parseOpenRange(header); ok {
		if s >= size {
			return true, 0, 0, false
		}
		return true, s, size - 1, true
	}
	if n, matched, ok := parseSuffixRange(header); ok && matched {
		if size == 0 {
			return true, 0, 0, false
		}
		if n == 0 {
			return true, 0, 0, false
		}
		if n > size {
			n = size
		}
		return true, size - n, size - 1, true
	}
	return false, 0, 0, false
}

