// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package deployer

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"regexp"
	"sort"

	"github.com/hashicorp/go-version"

	"github.com/epam/backendctl/cmd/backendctl/config"
	"github.com/epam/backendctl/cmd/backendctl/util"
)

type binRequirement struct {
	bin        []string
	minVersion *version.Version
	pattern    *regexp.Regexp
}

var semverPattern = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)

var binVersion = map[string]*binRequirement{
	"node": {
		bin:        []string{"node", "--version"},
		minVersion: version.Must(version.NewVersion("18.0.0")),
		pattern:    semverPattern,
	},
	"npm": {
		bin:        []string{"npm", "--version"},
		minVersion: version.Must(version.NewVersion("9.0.0")),
		pattern:    semverPattern,
	},
	"npx": {
		bin:     []string{"npx", "--version"},
		pattern: semverPattern,
	},
}

var runVersion = func(ctx context.Context, bin []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin[0], bin[1:]...)
	return cmd.Output()
}

// CheckRequirements verifies the tools the deployer shells out to are installed
// and recent enough.
func CheckRequirements(ctx context.Context) error {
	names := make([]string, 0, len(binVersion))
	for name := range binVersion {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		req := binVersion[name]
		if config.Trace {
			log.Printf("Checking %v", req.bin)
		}
		out, err := runVersion(ctx, req.bin)
		if err != nil {
			errs = append(errs, fmt.Errorf("`%s` requirement cannot be satisfied: %v", name, err))
			continue
		}
		if err := checkRequiresBinVersion(req, out); err != nil {
			errs = append(errs, fmt.Errorf("`%s` requirement cannot be satisfied: %v", name, err))
			continue
		}
		if config.Verbose {
			log.Printf("Found %s", util.HighlightColor(fmt.Sprintf("%s %s", name, req.pattern.FindString(string(out)))))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", util.Errors("\n\t", errs...))
	}
	return nil
}

func checkRequiresBinVersion(req *binRequirement, out []byte) error {
	match := req.pattern.FindSubmatch(out)
	if match == nil {
		return fmt.Errorf("unable to parse `%s` version from output: %q", req.bin[0], out)
	}
	found, err := version.NewVersion(string(match[1]))
	if err != nil {
		return fmt.Errorf("unable to parse `%s` version `%s`: %v", req.bin[0], match[1], err)
	}
	if req.minVersion != nil && found.LessThan(req.minVersion) {
		return fmt.Errorf("`%s` version %s is less than required %s", req.bin[0], found, req.minVersion)
	}
	return nil
}
