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

package errors_test

import (
	"errors"
	"testing"

	liberr "github.com/sabouaram/s3fsgw/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestErrors(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "errors suite")
}

var _ = Describe("coded errors", func() {
	It("maps codes to S3 code and HTTP status", func() {
		e := liberr.New(liberr.NoObject, "object missing")
		Expect(e.Code().S3Code()).To(Equal("NoSuchKey"))
		Expect(e.Code().HTTPStatus()).To(Equal(404))
	})

	It("does not leak wrapped cause into client-visible code", func() {
		cause := errors.New("open /data/x: permission denied")
		e := liberr.Wrap(liberr.Internal, cause, "write failed")
		Expect(liberr.CodeOf(e)).To(Equal(liberr.Internal))
		Expect(e.Error()).To(ContainSubstring("permission denied"))
	})

	It("carries a resource scope for <Resource> rendering", func() {
		e := liberr.New(liberr.InvalidKey, "bad key").WithResource("/bucket/key")
		Expect(liberr.ResourceOf(e)).To(Equal("/bucket/key"))
	})

	It("defaults resource to / when unset", func() {
		plain := errors.New("boom")
		Expect(liberr.ResourceOf(plain)).To(Equal("/"))
		Expect(liberr.CodeOf(plain)).To(Equal(liberr.Internal))
	})

	It("participates in errors.Is by code", func() {
		a := liberr.New(liberr.NoUpload, "no session")
		b := liberr.New(liberr.NoUpload, "different message, same code")
		Expect(errors.Is(a, b)).To(BeTrue())
	})
})
