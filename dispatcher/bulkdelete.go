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
	"encoding/xml"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	liberr "github.com/sabouaram/s3fsgw/errors"
	"github.com/sabouaram/s3fsgw/validate"
	"github.com/sabouaram/s3fsgw/xmlenc"
)

// maxXMLBodyBytes bounds in-memory XML parsing for bodies the dispatcher
// decodes itself (BulkDelete, CompleteMultipartUpload), independent of
// MAX_REQUEST_SIZE which governs the declared Content-Length of every
// request.
const maxXMLBodyBytes = 1 << 20

type bulkDeleteBody struct {
	XMLName xml.Name `xml:"Delete"`
	Quiet   bool     `xml:"Quiet"`
	Objects []struct {
		Key string `xml:"Key"`
	} `xml:"Object"`
}

// bulkDelete parses the Delete document, validates each key, deletes
// the valid ones (absent is success), and reports the outcome per
// entry.
func (d *Dispatcher) bulkDelete(c *gin.Context, bucket string) int {
	var body bulkDeleteBody
	dec := xml.NewDecoder(io.LimitReader(c.Request.Body, maxXMLBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return writeError(c, liberr.New(liberr.MalformedXMLBody, "malformed Delete body"))
	}

	var deleted []string
	var errs []xmlenc.DeleteErrorEntry

	for _, obj := range body.Objects {
		if !validate.Key(obj.Key) {
			errs = append(errs, xmlenc.DeleteErrorEntry{
				Key:     obj.Key,
				Code:    liberr.InvalidKey.S3Code(),
				Message: "invalid object key",
			})
			continue
		}
		if err := d.engine.DeleteObject(bucket, obj.Key); err != nil {
			errs = append(errs, xmlenc.DeleteErrorEntry{
				Key:     obj.Key,
				Code:    liberr.CodeOf(err).S3Code(),
				Message: liberr.CodeOf(err).S3Code(),
			})
			continue
		}
		deleted = append(deleted, obj.Key)
	}

	resp := xmlenc.EncodeDeleteResult(deleted, errs, body.Quiet)
	c.Data(http.StatusOK, xmlenc.ContentType, resp)
	return http.StatusOK
}
