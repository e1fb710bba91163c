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
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	liberr "github.com/sabouaram/s3fsgw/errors"
)

// newTempFile creates a temp file in dir (the destination's parent), the
// teacher's ioutils.NewTempFile idiom scoped to a specific directory so
// the final os.Rename stays within one filesystem/mount.
func newTempFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.CreateTemp(dir, ".s3fsgw-tmp-*")
}

func delTempFile(f *os.File) {
	if f == nil {
		return
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
}

// writeAtomic streams body into a temp file beside dest, then renames
// over dest. On any failure the temp file is unlinked and dest is left
// untouched. Returns the MD5 of the written content as a lowercase hex
// ETag.
func writeAtomic(dest string, body io.Reader) (etag string, size int64, err error) {
	tmp, err := newTempFile(filepath.Dir(dest))
	if err != nil {
		return "", 0, liberr.Wrap(liberr.Internal, err, "create temp file")
	}
	defer func() { delTempFile(tmp) }()

	h := md5.New()
	n, err := io.Copy(tmp, io.TeeReader(body, h))
	if err != nil {
		return "", 0, liberr.Wrap(liberr.Internal, err, "write temp file")
	}
	if err = tmp.Sync(); err != nil {
		return "", 0, liberr.Wrap(liberr.Internal, err, "fsync temp file")
	}
	if err = tmp.Close(); err != nil {
		return "", 0, liberr.Wrap(liberr.Internal, err, "close temp file")
	}

	if err = os.Rename(tmp.Name(), dest); err != nil {
		return "", 0, liberr.Wrap(liberr.Internal, err, "rename into place")
	}

	// Renamed successfully: nothing left for the deferred cleanup to do.
	tmp = nil

	return hex.EncodeToString(h.Sum(nil)), n, nil
}
