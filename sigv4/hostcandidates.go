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

package sigv4

import "strings"

// RequestHosts carries the raw inputs hostCandidates needs: the literal
// Host header, the connection scheme, an optional X-Forwarded-Host, and
// the server's own configured identity.
type RequestHosts struct {
	Host              string
	Scheme            string // "http" or "https"
	ForwardedHost     string
	ServerName        string
	ServerPort        string
	AllowFallbacks    bool
}

func defaultPortFor(scheme string) string {
	if scheme == "https" {
		return "443"
	}
	return "80"
}

func stripDefaultPort(host, scheme string) string {
	port := defaultPortFor(scheme)
	if strings.HasSuffix(host, ":"+port) {
		return strings.TrimSuffix(host, ":"+port)
	}
	return host
}

// hostCandidates builds the ordered, deduplicated candidate set: the
// literal Host header, that value with its default port added or
// stripped, and — only with fallbacks enabled — X-Forwarded-Host and
// the server's own configured name.
func hostCandidates(rh RequestHosts) []string {
	var ordered []string
	seen := make(map[string]bool)

	add := func(h string) {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" || seen[h] {
			return
		}
		seen[h] = true
		ordered = append(ordered, h)
	}

	add(rh.Host)

	if host := strings.ToLower(strings.TrimSpace(rh.Host)); host != "" {
		port := defaultPortFor(rh.Scheme)
		if strings.Contains(host, ":") {
			add(stripDefaultPort(host, rh.Scheme))
		} else {
			add(host + ":" + port)
		}
	}

	if rh.AllowFallbacks {
		if rh.ForwardedHost != "" {
			first := strings.TrimSpace(strings.Split(rh.ForwardedHost, ",")[0])
			add(first)
		}
		if rh.ServerName != "" {
			add(rh.ServerName)
			if rh.ServerPort != "" {
				add(rh.ServerName + ":" + rh.ServerPort)
			}
		}
	}

	return ordered
}
