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

package storage

import (
	"io"
	"os"
	"time"

	liberr "github.com/sabouaram/s3fsgw/errors"
)

// ObjectInfo is what HeadObject/GetObject/PutObject report back.
type ObjectInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
	ETag    string
}

// PutObject atomically writes body to DATA_DIR/<bucket>/<key>,
// overwriting any previous content in one rename: readers observe
// either the previous content or the fully new content, never a
// truncated or partial state.
func (e *Engine) PutObject(bucket, key string, body io.Reader) (ObjectInfo, error) {
	dest := e.objectPath(bucket, key)
	etag, size, err := writeAtomic(dest, body)
	if err != nil {
		return ObjectInfo{}, err
	}
	info, statErr := os.Stat(dest)
	if statErr != nil {
		return ObjectInfo{}, liberr.Wrap(liberr.Internal, statErr, "stat written object")
	}
	return ObjectInfo{Key: key, Size: size, ModTime: info.ModTime(), ETag: etag}, nil
}

// OpenObject opens the object file for streaming and returns its size and
// mtime alongside the handle. The caller (dispatcher) owns closing f on
// every exit path, including client disconnect.
func (e *Engine) OpenObject(bucket, key string) (f *os.File, info ObjectInfo, err error) {
	path := e.objectPath(bucket, key)
	fh, openErr := os.Open(path)
	if openErr != nil {
		if os.IsNotExist(openErr) {
			return nil, ObjectInfo{}, liberr.New(liberr.NoObject, "no such key").WithResource("/" + bucket + "/" + key)
		}
		return nil, ObjectInfo{}, liberr.Wrap(liberr.Internal, openErr, "open object")
	}
	st, statErr := fh.Stat()
	if statErr != nil {
		_ = fh.Close()
		return nil, ObjectInfo{}, liberr.Wrap(liberr.Internal, statErr, "stat object")
	}
	if st.IsDir() {
		_ = fh.Close()
		return nil, ObjectInfo{}, liberr.New(liberr.NoObject, "no such key").WithResource("/" + bucket + "/" + key)
	}
	return fh, ObjectInfo{Key: key, Size: st.Size(), ModTime: st.ModTime()}, nil
}

// HeadObject reports size/mtime without opening the content for reading.
func (e *Engine) HeadObject(bucket, key string) (ObjectInfo, error) {
	path := e.objectPath(bucket, key)
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ObjectInfo{}, liberr.New(liberr.NoObject, "no such key").WithResource("/" + bucket + "/" + key)
		}
		return ObjectInfo{}, liberr.Wrap(liberr.Internal, err, "stat object")
	}
	if st.IsDir() {
		return ObjectInfo{}, liberr.New(liberr.NoObject, "no such key").WithResource("/" + bucket + "/" + key)
	}
	return ObjectInfo{Key: key, Size: st.Size(), ModTime: st.ModTime()}, nil
}

// DeleteObject unlinks the object if present. Absent is success — S3
// semantics.
func (e *Engine) DeleteObject(bucket, key string) error {
	err := os.Remove(e.objectPath(bucket, key))
	if err != nil && !os.IsNotExist(err) {
		return liberr.Wrap(liberr.Internal, err, "delete object")
	}
	return nil
}
