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
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	liberr "github.com/sabouaram/s3fsgw/errors"
	"github.com/sabouaram/s3fsgw/reqctx"
	"github.com/sabouaram/s3fsgw/validate"
	"github.com/sabouaram/s3fsgw/xmlenc"
)

func (d *Dispatcher) initiateMultipart(c *gin.Context, bucket, key string) int {
	uploadID, err := d.engine.InitiateMultipart(bucket, key)
	if err != nil {
		return writeError(c, err)
	}
	body := xmlenc.EncodeInitiateMultipart(bucket, key, uploadID)
	c.Data(http.StatusOK, xmlenc.ContentType, body)
	return http.StatusOK
}

func (d *Dispatcher) uploadPart(c *gin.Context, rc *reqctx.Context, bucket, key string) int {
	uploadID, _ := rc.QueryValue("uploadId")
	partStr, _ := rc.QueryValue("partNumber")
	partNumber, ok := validate.PartNumber(partStr)
	if !ok {
		return writeError(c, liberr.New(liberr.InvalidPartNumber, "invalid part number"))
	}

	etag, err := d.engine.UploadPart(bucket, key, uploadID, partNumber, c.Request.Body)
	if err != nil {
		return writeError(c, err)
	}
	c.Header("ETag", etag)
	c.Status(http.StatusOK)
	return http.StatusOK
}

type completeMultipartBody struct {
	XMLName xml.Name `xml:"CompleteMultipartUpload"`
	Parts   []struct {
		PartNumber int `xml:"PartNumber"`
	} `xml:"Part"`
}

func (d *Dispatcher) completeMultipart(c *gin.Context, rc *reqctx.Context, bucket, key string) int {
	uploadID, _ := rc.QueryValue("uploadId")

	var body completeMultipartBody
	dec := xml.NewDecoder(io.LimitReader(c.Request.Body, maxXMLBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return writeError(c, liberr.New(liberr.MalformedXMLBody, "malformed CompleteMultipartUpload body"))
	}

	partNumbers := make([]int, 0, len(body.Parts))
	for _, p := range body.Parts {
		partNumbers = append(partNumbers, p.PartNumber)
	}

	info, err := d.engine.CompleteMultipart(bucket, key, uploadID, partNumbers)
	if err != nil {
		return writeError(c, err)
	}

	location := fmt.Sprintf("/%s/%s", bucket, key)
	resp := xmlenc.EncodeCompleteMultipart(location, bucket, key, uploadID)
	_ = info
	c.Data(http.StatusOK, xmlenc.ContentType, resp)
	return http.StatusOK
}

func (d *Dispatcher) abortMultipart(c *gin.Context, rc *reqctx.Context, bucket, key string) int {
	uploadID, _ := rc.QueryValue("uploadId")
	if err := d.engine.AbortMultipart(bucket, key, uploadID); err != nil {
		return writeError(c, err)
	}
	c.Status(http.StatusNoContent)
	return http.StatusNoContent
}
