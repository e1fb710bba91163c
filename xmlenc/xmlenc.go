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

// Package xmlenc renders the five S3 response documents the dispatcher
// needs, byte-exact in element name and nesting. Built directly on
// encoding/xml with Go struct tags rather than a string template, so
// escaping is handled by the standard library's XML encoder instead of
// by hand.
package xmlenc

import (
	"bytes"
	"encoding/xml"
	"time"
)

const ContentType = "application/xml"

// Timestamp formats t as the S3 wire format: YYYY-MM-DDTHH:MM:SS.000Z.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

type ErrorDoc struct {
	XMLName  xml.Name `xml:"Error"`
	Code     string   `xml:"Code"`
	Message  string   `xml:"Message"`
	Resource string   `xml:"Resource"`
}

// EncodeError renders <Error><Code/><Message/><Resource/></Error>.
func EncodeError(code, message, resource string) []byte {
	return encode(ErrorDoc{Code: code, Message: message, Resource: resource})
}

type Content struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	Size         int64  `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
}

type ListBucketResult struct {
	XMLName     xml.Name  `xml:"ListBucketResult"`
	Name        string    `xml:"Name"`
	Prefix      string    `xml:"Prefix"`
	MaxKeys     int       `xml:"MaxKeys"`
	IsTruncated bool      `xml:"IsTruncated"`
	Contents    []Content `xml:"Contents"`
}

// ObjectSummary is what the storage engine's listing yields.
type ObjectSummary struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// EncodeListBucket renders <ListBucketResult>. MaxKeys is always declared
// as 1000 and IsTruncated always false; listing is not paginated.
func EncodeListBucket(bucket, prefix string, objs []ObjectSummary) []byte {
	r := ListBucketResult{
		Name:        bucket,
		Prefix:      prefix,
		MaxKeys:     1000,
		IsTruncated: false,
		Contents:    make([]Content, 0, len(objs)),
	}
	for _, o := range objs {
		r.Contents = append(r.Contents, Content{
			Key:          o.Key,
			LastModified: Timestamp(o.ModTime),
			Size:         o.Size,
			StorageClass: "STANDARD",
		})
	}
	return encode(r)
}

type InitiateMultipartUploadResult struct {
	XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	UploadId string   `xml:"UploadId"`
}

func EncodeInitiateMultipart(bucket, key, uploadID string) []byte {
	return encode(InitiateMultipartUploadResult{Bucket: bucket, Key: key, UploadId: uploadID})
}

type CompleteMultipartUploadResult struct {
	XMLName  xml.Name `xml:"CompleteMultipartUploadResult"`
	Location string   `xml:"Location"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	UploadId string   `xml:"UploadId"`
}

func EncodeCompleteMultipart(location, bucket, key, uploadID string) []byte {
	return encode(CompleteMultipartUploadResult{Location: location, Bucket: bucket, Key: key, UploadId: uploadID})
}

type DeletedEntry struct {
	Key string `xml:"Key"`
}

type DeleteErrorEntry struct {
	Key     string `xml:"Key"`
	Code    string `xml:"Code"`
	Message string `xml:"Message"`
}

type DeleteResult struct {
	XMLName xml.Name           `xml:"DeleteResult"`
	Deleted []DeletedEntry     `xml:"Deleted,omitempty"`
	Errors  []DeleteErrorEntry `xml:"Error,omitempty"`
}

func EncodeDeleteResult(deleted []string, errs []DeleteErrorEntry, quiet bool) []byte {
	r := DeleteResult{Errors: errs}
	if !quiet {
		r.Deleted = make([]DeletedEntry, 0, len(deleted))
		for _, k := range deleted {
			r.Deleted = append(r.Deleted, DeletedEntry{Key: k})
		}
	}
	return encode(r)
}

func encode(v any) []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	// Encoding errors here can only come from unsupported Go types, never
	// from the escaped string content (encoding/xml escapes & < > " '
	// automatically) — every type above is a plain struct of strings/ints.
	_ = enc.Encode(v)
	return buf.Bytes()
}
