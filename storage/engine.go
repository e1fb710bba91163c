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

// Package storage is the content-addressed, filesystem-backed storage
// engine. Single-object writes are atomic via temp-file-then-rename;
// multipart sessions live in a dot-prefixed scratch tree keyed by
// SHA-256(key) so they can never collide with, or appear in listings of,
// real object keys.
package storage

import (
	"path/filepath"

	libsiz "github.com/sabouaram/s3fsgw/size"
)

// StreamChunkSize bounds both GET range-streaming and the part-to-object
// copy during Complete, so the two streaming paths share one magic
// number instead of two.
const StreamChunkSize = 8 * libsiz.SizeMega

// Engine is the storage engine rooted at a single DATA_DIR. One Engine
// per process; no in-memory state crosses requests.
type Engine struct {
	root string
}

// New returns a storage Engine rooted at dataDir. dataDir need not exist
// yet: writes create any missing directories, dataDir included.
func New(dataDir string) *Engine {
	return &Engine{root: filepath.Clean(dataDir)}
}

func (e *Engine) Root() string {
	return e.root
}

func (e *Engine) bucketDir(bucket string) string {
	return filepath.Join(e.root, bucket)
}

// objectPath returns DATA_DIR/<bucket>/<key> with key's "/" separators
// mapped onto the host filesystem's separator.
func (e *Engine) objectPath(bucket, key string) string {
	if key == "" {
		return e.bucketDir(bucket)
	}
	return filepath.Join(e.bucketDir(bucket), filepath.FromSlash(key))
}

const multipartRoot = ".multipart"

// sessionDir returns DATA_DIR/.multipart/<bucket>/<keyNamespace>/<uploadId>.
// The ".multipart" top-level segment is dot-prefixed and reserved: it can
// never be produced by a valid bucket name (bucket names must start and
// end with alphanumerics), so it can never collide with a real bucket,
// and listing walks only inside a bucket's own directory so
// this tree is structurally invisible to ListObjects.
func (e *Engine) sessionDir(bucket, key, uploadID string) string {
	return filepath.Join(e.root, multipartRoot, bucket, keyNamespace(key), uploadID)
}

func (e *Engine) keyNamespaceDir(bucket, key string) string {
	return filepath.Join(e.root, multipartRoot, bucket, keyNamespace(key))
}

func (e *Engine) bucketMultipartDir(bucket string) string {
	return filepath.Join(e.root, multipartRoot, bucket)
}

func (e *Engine) multipartRootDir() string {
	return filepath.Join(e.root, multipartRoot)
}
