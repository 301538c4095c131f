// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package deployer

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/epam/backendctl/cmd/backendctl/util"
)

var wellKnownOsEnv = []string{
	"AWS_*", "CDK_*", "JSII_*",
	"NODE_*", "NPM_*", "npm_*", "NVM_*", "COREPACK_*", "TSX_*",
	"BACKENDCTL_*", "AMPLIFY_*",
	"HTTP_PROXY", "HTTPS_PROXY", "NO_PROXY", "http_proxy", "https_proxy", "no_proxy",
	"CI", "HOME", "LANG", "LC_*", "LOGNAME", "PATH", "SHELL", "TERM", "TMPDIR", "USER",
	"APPDATA", "LOCALAPPDATA", "SYSTEMROOT", "USERPROFILE",
}

func initOsEnv(mode string) ([]string, error) {
	osEnv := os.Environ()

	switch mode {
	case "everything", "":
		return osEnv, nil
	case "strict":
		return filterEnv(osEnv, wellKnownOsEnv), nil
	}

	return nil, fmt.Errorf("`%s` is not recognized as a valid OS environment mode", mode)
}

func filterEnv(env, patterns []string) []string {
	filtered := make([]string, 0, len(env))
	for _, v := range env {
		kv := strings.SplitN(v, "=", 2)
		if len(kv) != 2 {
			continue
		}
		if util.ContainsPrefix(patterns, kv[0]) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// mergeOsEnviron merges KEY=value lists, later lists win; the result is sorted.
func mergeOsEnviron(toMerge ...[]string) []string {
	vars := make(map[string]string)
	for _, varsArray := range toMerge {
		for _, envVar := range varsArray {
			kv := strings.SplitN(envVar, "=", 2)
			if len(kv) != 2 {
				continue
			}
			vars[kv[0]] = kv[1]
		}
	}

	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	res := make([]string, 0, len(vars))
	for _, key := range keys {
		res = append(res, fmt.Sprintf("%s=%s", key, vars[key]))
	}
	return res
}
