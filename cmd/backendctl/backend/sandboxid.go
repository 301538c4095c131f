// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package backend

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var sandboxIDIllegal = regexp.MustCompile(`[^A-Za-z0-9]+`)

const maxSandboxNamePart = 32

// SandboxBackendID derives a stable per-developer backend id from the project name
// (package.json `name`, else the directory name) and the OS user.
func SandboxBackendID(projectDir, user string) (string, error) {
	project, err := projectName(projectDir)
	if err != nil {
		return "", err
	}
	project = sanitizeSandboxPart(project)
	user = sanitizeSandboxPart(user)
	if project == "" || user == "" {
		return "", fmt.Errorf("Unable to derive sandbox id from project `%s` and user `%s`", projectDir, user)
	}
	return project + "-" + user, nil
}

func projectName(projectDir string) (string, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return "", fmt.Errorf("Unable to resolve project directory `%s`: %v", projectDir, err)
	}
	data, err := os.ReadFile(filepath.Join(abs, "package.json"))
	if err == nil {
		var pkg struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &pkg); err != nil {
			return "", fmt.Errorf("Unable to parse `%s`: %v", filepath.Join(abs, "package.json"), err)
		}
		if name := strings.TrimSpace(pkg.Name); name != "" {
			// scoped packages: @org/app
			return name[strings.LastIndex(name, "/")+1:], nil
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}
	return filepath.Base(abs), nil
}

func sanitizeSandboxPart(part string) string {
	part = sandboxIDIllegal.ReplaceAllString(part, "")
	if len(part) > maxSandboxNamePart {
		part = part[:maxSandboxNamePart]
	}
	return part
}
