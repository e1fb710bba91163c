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

// Package size parses and formats byte quantities for configuration values
// such as MAX_REQUEST_SIZE, so operators write "8MiB" instead of 8388608.
package size

import (
	"fmt"
	"strconv"
	"strings"
)

type Size int64

const (
	SizeUnit Size = 1
	SizeKilo      = SizeUnit * 1024
	SizeMega      = SizeKilo * 1024
	SizeGiga      = SizeMega * 1024
	SizeTera      = SizeGiga * 1024
)

var suffixes = []struct {
	suffix string
	unit   Size
}{
	{"TIB", SizeTera}, {"TB", SizeTera}, {"T", SizeTera},
	{"GIB", SizeGiga}, {"GB", SizeGiga}, {"G", SizeGiga},
	{"MIB", SizeMega}, {"MB", SizeMega}, {"M", SizeMega},
	{"KIB", SizeKilo}, {"KB", SizeKilo}, {"K", SizeKilo},
	{"B", SizeUnit}, {"", SizeUnit},
}

// Parse accepts forms like "5", "5B", "8MiB", "1.5G" (case-insensitive).
func Parse(s string) (Size, error) {
	t := strings.TrimSpace(strings.ToUpper(s))
	if t == "" {
		return 0, fmt.Errorf("size: empty value")
	}

	for _, sfx := range suffixes {
		if sfx.suffix != "" && strings.HasSuffix(t, sfx.suffix) {
			numPart := strings.TrimSpace(strings.TrimSuffix(t, sfx.suffix))
			if numPart == "" {
				continue
			}
			f, err := strconv.ParseFloat(numPart, 64)
			if err != nil {
				continue
			}
			return Size(f * float64(sfx.unit)), nil
		}
	}

	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("size: cannot parse %q: %w", s, err)
	}
	return Size(f), nil
}

func (s Size) Int64() int64 {
	return int64(s)
}

func (s Size) String() string {
	switch {
	case s >= SizeTera:
		return fmt.Sprintf("%.2fTiB", float64(s)/float64(SizeTera))
	case s >= SizeGiga:
		return fmt.Sprintf("%.2fGiB", float64(s)/float64(SizeGiga))
	case s >= SizeMega:
		return fmt.Sprintf("%.2fMiB", float64(s)/float64(SizeMega))
	case s >= SizeKilo:
		return fmt.Sprintf("%.2fKiB", float64(s)/float64(SizeKilo))
	default:
		return fmt.Sprintf("%dB", int64(s))
	}
}

// UnmarshalText lets viper/mapstructure decode config values of this type
// directly from strings ("8MiB") via the standard TextUnmarshaler hook.
func (s *Size) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
