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
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bits-and-blooms/bitset"
	uuid "github.com/hashicorp/go-uuid"

	liberr "github.com/sabouaram/s3fsgw/errors"
)

// InitiateMultipart creates a new session directory under a fresh,
// randomly generated uploadId. Two Initiates for the same (bucket, key)
// always produce two distinct, isolated sessions; idempotency is not
// required.
func (e *Engine) InitiateMultipart(bucket, key string) (uploadID string, err error) {
	raw, genErr := uuid.GenerateRandomBytes(16)
	if genErr != nil {
		return "", liberr.Wrap(liberr.Internal, genErr, "generate upload id")
	}
	uploadID = hex.EncodeToString(raw)

	dir := e.sessionDir(bucket, key, uploadID)
	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		return "", liberr.Wrap(liberr.Internal, mkErr, "create session directory")
	}
	return uploadID, nil
}

func (e *Engine) sessionExists(bucket, key, uploadID string) bool {
	st, err := os.Stat(e.sessionDir(bucket, key, uploadID))
	return err == nil && st.IsDir()
}

// UploadPart atomically writes body to <sessionDir>/<partNumber>,
// replacing any prior content for that part number (idempotent
// overwrite). Sibling uploadId directories are never touched: each
// session has its own directory, so concurrent sessions on the same
// (bucket, key) cannot observe each other's parts.
func (e *Engine) UploadPart(bucket, key, uploadID string, partNumber int, body io.Reader) (etag string, err error) {
	if !e.sessionExists(bucket, key, uploadID) {
		return "", liberr.New(liberr.NoUpload, "no such upload session")
	}
	if partNumber < 1 {
		return "", liberr.New(liberr.InvalidPartNumber, "part number must be >= 1")
	}

	dest := partPath(e.sessionDir(bucket, key, uploadID), partNumber)
	etag, _, err = writeAtomic(dest, body)
	return etag, err
}

func partPath(sessionDir string, partNumber int) string {
	return sessionDir + string(os.PathSeparator) + strconv.Itoa(partNumber)
}

// dedupeSortParts de-duplicates and numerically sorts partNumbers using a
// bitset as the seen-set — the bitset's ascending bit order gives the
// sorted result for free, in place of a map-plus-sort.Ints pair.
func dedupeSortParts(partNumbers []int) ([]int, error) {
	if len(partNumbers) == 0 {
		return nil, liberr.New(liberr.InvalidPartNumber, "empty part list")
	}

	var maxSeen uint
	for _, n := range partNumbers {
		if n < 1 {
			return nil, liberr.New(liberr.InvalidPartNumber, "part number must be >= 1")
		}
		if uint(n) > maxSeen {
			maxSeen = uint(n)
		}
	}

	bs := bitset.New(maxSeen + 1)
	for _, n := range partNumbers {
		bs.Set(uint(n))
	}

	sorted := make([]int, 0, len(partNumbers))
	for i, ok := bs.NextSet(1); ok; i, ok = bs.NextSet(i + 1) {
		sorted = append(sorted, int(i))
	}
	return sorted, nil
}

// CompleteMultipart streams each part, in ascending part-number order,
// into a temp file beside the destination object and renames it into
// place. On any failure before the rename the temp file is unlinked and
// the session (and all its parts) survive untouched for a retry. Only
// after a successful rename is the session directory removed, followed
// by opportunistic, empty-only pruning of its parent directories;
// sibling uploadId directories are never visited.
func (e *Engine) CompleteMultipart(bucket, key, uploadID string, partNumbers []int) (ObjectInfo, error) {
	if !e.sessionExists(bucket, key, uploadID) {
		return ObjectInfo{}, liberr.New(liberr.NoUpload, "no such upload session")
	}

	sorted, err := dedupeSortParts(partNumbers)
	if err != nil {
		return ObjectInfo{}, err
	}

	sessDir := e.sessionDir(bucket, key, uploadID)

	parts := make([]*os.File, 0, len(sorted))
	defer func() {
		for _, f := range parts {
			_ = f.Close()
		}
	}()
	for _, n := range sorted {
		f, openErr := os.Open(partPath(sessDir, n))
		if openErr != nil {
			return ObjectInfo{}, liberr.New(liberr.InvalidPartNumber, "referenced part missing").Add(openErr)
		}
		parts = append(parts, f)
	}

	dest := e.objectPath(bucket, key)
	tmp, err := newTempFile(filepath.Dir(dest))
	if err != nil {
		return ObjectInfo{}, liberr.Wrap(liberr.Internal, err, "create temp file")
	}
	defer func() { delTempFile(tmp) }()

	buf := make([]byte, StreamChunkSize)
	var total int64
	for _, f := range parts {
		n, copyErr := io.CopyBuffer(tmp, f, buf)
		total += n
		if copyErr != nil {
			return ObjectInfo{}, liberr.Wrap(liberr.Internal, copyErr, "assemble parts")
		}
	}
	if err = tmp.Sync(); err != nil {
		return ObjectInfo{}, liberr.Wrap(liberr.Internal, err, "fsync assembled object")
	}
	if err = tmp.Close(); err != nil {
		return ObjectInfo{}, liberr.Wrap(liberr.Internal, err, "close assembled object")
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		return ObjectInfo{}, liberr.Wrap(liberr.Internal, err, "rename assembled object into place")
	}
	tmp = nil

	info, statErr := os.Stat(dest)
	if statErr != nil {
		return ObjectInfo{}, liberr.Wrap(liberr.Internal, statErr, "stat assembled object")
	}

	e.cleanupSession(bucket, key, uploadID)

	return ObjectInfo{Key: key, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// AbortMultipart removes the session directory and opportunistically
// prunes now-empty parents. Sibling sessions on the same (bucket, key)
// are untouched.
func (e *Engine) AbortMultipart(bucket, key, uploadID string) error {
	if !e.sessionExists(bucket, key, uploadID) {
		return liberr.New(liberr.NoUpload, "no such upload session")
	}
	e.cleanupSession(bucket, key, uploadID)
	return nil
}

// cleanupSession removes exactly one session directory, then walks
// upward removing the key-namespace dir, the bucket's multipart subtree,
// and the .multipart root — each step only if it is empty. A sibling
// uploadId directory under the same (bucket, key) makes the
// key-namespace removal a no-op, preserving session isolation.
func (e *Engine) cleanupSession(bucket, key, uploadID string) {
	_ = os.RemoveAll(e.sessionDir(bucket, key, uploadID))
	_ = os.Remove(e.keyNamespaceDir(bucket, key))
	_ = os.Remove(e.bucketMultipartDir(bucket))
	_ = os.Remove(e.multipartRootDir())
}
