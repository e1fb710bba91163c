/***********************************************************************************************************************
 *
 *   MIT License
 *
 *   Copyright (c) 2022 Nicolas JUHEL
 *
 *   Permission is hereby granted, free of charge, to any person obtaining a copy
 *   of this software and associated documentation files (the "Software"), to deal
 *   in the Software without restriction, including without limitation the rights
 *   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *   copies of the Software, and to permit persons to whom the Software is
 *   furnished to do so, subject to the following conditions:
 *
 *   The above copyright notice and this permission notice shall be included in all
 *   copies or substantial portions of the Software.
 *
 *   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *   SOFTWARE.
 *
 *
 **********************************************************************************************************************/

// Package duration parses the CLOCK_SKEW_SECONDS / MAX_PRESIGN_EXPIRES-style
// config values this gateway accepts, extending time.ParseDuration with an
// optional leading days component ("1d2h3m4s") since operators write clock
// skew budgets in days far more often than in raw hours.
package duration

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration that knows how to parse and print a leading
// days component.
type Duration time.Duration

// Parse accepts anything time.ParseDuration accepts, plus an optional
// leading "<n>d" component, e.g. "5d23h15m13s" or plain "15m".
func Parse(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("duration: empty value")
	}

	days, rest, err := splitLeadingDays(s)
	if err != nil {
		return 0, fmt.Errorf("duration: %q: %w", s, err)
	}

	var tail time.Duration
	if rest != "" {
		tail, err = time.ParseDuration(rest)
		if err != nil {
			return 0, fmt.Errorf("duration: %q: %w", s, err)
		}
	}

	return Duration(time.Duration(days)*24*time.Hour + tail), nil
}

// splitLeadingDays peels off a "<n>d" prefix, if present, and returns the
// remaining duration string (possibly empty, meaning exactly n days).
func splitLeadingDays(s string) (days int64, rest string, err error) {
	idx := strings.IndexByte(s, 'd')
	if idx <= 0 {
		return 0, s, nil
	}
	// Reject a "d" that belongs to a unit further in, e.g. no such
	// standard unit starts with a digit immediately followed by 'd'
	// other than the days component itself, so any digits-then-'d'
	// prefix is unambiguous.
	n, convErr := strconv.ParseInt(s[:idx], 10, 64)
	if convErr != nil {
		return 0, s, nil
	}
	return n, s[idx+1:], nil
}

// Time returns the equivalent time.Duration.
func (d Duration) Time() time.Duration {
	return time.Duration(d)
}

// Days returns the whole number of 24-hour days in d, truncating toward
// zero.
func (d Duration) Days() int64 {
	return int64(d.Time() / (24 * time.Hour))
}

// String renders d as "<n>d<remainder>" when it spans at least one full
// day, or as the plain time.Duration string otherwise.
func (d Duration) String() string {
	days := d.Days()
	if days == 0 {
		return d.Time().String()
	}
	remainder := d.Time() - time.Duration(days)*24*time.Hour
	return fmt.Sprintf("%dd%s", days, remainder.String())
}
