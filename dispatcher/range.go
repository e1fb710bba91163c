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
	"regexp"
	"strconv"
)

var (
	boundedRangePattern = regexp.MustCompile(`^bytes=(\d+)-(\d+)$`)
	openRangePattern    = regexp.MustCompile(`^bytes=(\d+)-$`)
	suffixRangePattern  = regexp.MustCompile(`^bytes=-(\d+)$`)
)

func parseBoundedRange(header string) (start, end int64, ok bool) {
	m := boundedRangePattern.FindStringSubmatch(header)
	if m == nil {
		return 0, 0, false
	}
	start, _ = strconv.ParseInt(m[1], 10, 64)
	end, _ = strconv.ParseInt(m[2], 10, 64)
	return start, end, true
}

func parseOpenRange(header string) (start int64, ok bool) {
	m := openRangePattern.FindStringSubmatch(header)
	if m == nil {
		return 0, false
	}
	start, _ = strconv.ParseInt(m[1], 10, 64)
	return start, true
}

func parseSuffixRange(header string) (n int64, matched, ok bool) {
	m := suffixRangePattern.FindStringSubmatch(header)
	if m == nil {
		return 0, false, false
	}
	n, _ = strconv.ParseInt(m[1], 10, 64)
	return n, true, true
}
