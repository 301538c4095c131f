// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package backend

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const BackendDir = "amplify"

var entryExtensions = []string{"ts", "mjs", "js", "cjs"}

// Locator finds the backend entry file of a project.
type Locator interface {
	Locate() (string, error)
}

type FileLocator struct {
	ProjectDir string
}

func NewLocator(projectDir string) *FileLocator {
	return &FileLocator{ProjectDir: projectDir}
}

// Locate returns the entry file path relative to ProjectDir, slash separated.
func (l *FileLocator) Locate() (string, error) {
	candidates := make([]string, 0, len(entryExtensions))
	for _, ext := range entryExtensions {
		relative := path.Join(BackendDir, "backend."+ext)
		candidates = append(candidates, relative)
		info, err := os.Stat(filepath.Join(l.ProjectDir, filepath.FromSlash(relative)))
		if err == nil && !info.IsDir() {
			return relative, nil
		}
	}
	dir := l.ProjectDir
	if dir == "" {
		dir = "."
	}
	return "", fmt.Errorf("Backend entry file not found in `%s`; backend must be defined in one of: %s",
		dir, strings.Join(candidates, ", "))
}
