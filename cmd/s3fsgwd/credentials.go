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

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/sabouaram/s3fsgw/logger"
)

// credentialStore implements sigv4.CredentialStore over an in-memory
// map that can be replaced wholesale, letting CREDENTIALS_FILE be
// hot-reloaded via fsnotify without restarting the listeners.
type credentialStore struct {
	mu   sync.RWMutex
	keys map[string]string
}

func newCredentialStore(initial map[string]string) *credentialStore {
	cs := &credentialStore{keys: make(map[string]string, len(initial))}
	for k, v := range initial {
		cs.keys[k] = v
	}
	return cs
}

func (cs *credentialStore) SecretKey(accessKeyID string) (string, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	s, ok := cs.keys[accessKeyID]
	return s, ok
}

func (cs *credentialStore) replace(keys map[string]string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.keys = keys
}

// loadCredentialsFile parses "accessKeyId=secretKey" lines, skipping
// blanks and "#"-prefixed comments.
func loadCredentialsFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	keys := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("malformed credentials line: %q", line)
		}
		keys[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return keys, scanner.Err()
}

// watchCredentialsFile reloads path into cs whenever it changes,
// logging failures rather than crashing the gateway over a bad edit.
func watchCredentialsFile(path string, cs *credentialStore, log *logger.Logger) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				keys, err := loadCredentialsFile(path)
				if err != nil {
					log.With(map[string]any{"file": path, "error": err.Error()}).Warn("credentials reload failed")
					continue
				}
				cs.replace(keys)
				log.With(map[string]any{"file": path, "count": len(keys)}).Info("credentials reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.With(map[string]any{"error": err.Error()}).Warn("credentials watcher error")
			}
		}
	}()

	return watcher, nil
}
