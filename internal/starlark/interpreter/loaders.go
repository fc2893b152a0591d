// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package interpreter

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileSystemLoader returns a loader that reads modules from files under root.
// Paths escaping root are rejected.
func FileSystemLoader(root string) Loader {
	root, err := filepath.Abs(root)
	if err != nil {
		panic(err)
	}
	return func(path string) (string, error) {
		abs := filepath.Join(root, filepath.FromSlash(path))
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return "", err
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", errors.New("outside the script directory")
		}
		body, err := os.ReadFile(abs)
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNoModule
		}
		return string(body), err
	}
}

// MemoryLoader returns a loader that loads modules from the given map.
func MemoryLoader(files map[string]string) Loader {
	return func(path string) (string, error) {
		body, ok := files[path]
		if !ok {
			return "", ErrNoModule
		}
		return body, nil
	}
}
