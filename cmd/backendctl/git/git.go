// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package git

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-git/go-git/v5"

	"github.com/epam/backendctl/cmd/backendctl/config"
)

var ErrDetachedHead = errors.New("HEAD is detached")

// CurrentBranch returns the short name of the branch checked out in the repository
// containing dir.
func CurrentBranch(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("Unable to open Git repo at `%s`: %w", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("Unable to determine Git repo `%s` HEAD: %w", dir, err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("Unable to determine Git repo `%s` branch: %w at %s", dir, ErrDetachedHead, head.Hash())
	}
	branch := head.Name().Short()
	if config.Debug {
		log.Printf("Git repo `%s` is on branch `%s`", dir, branch)
	}
	return branch, nil
}
