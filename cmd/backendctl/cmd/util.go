// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"errors"
	"fmt"
	"log"
	"os/user"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/epam/backendctl/cmd/backendctl/aws"
	"github.com/epam/backendctl/cmd/backendctl/backend"
	"github.com/epam/backendctl/cmd/backendctl/config"
	"github.com/epam/backendctl/cmd/backendctl/deployer"
	"github.com/epam/backendctl/cmd/backendctl/errmap"
	"github.com/epam/backendctl/cmd/backendctl/git"
)

var (
	backendID         string
	branchName        string
	sandboxIdentifier string
)

func newDeployer(passStdin bool) *deployer.Deployer {
	executor := &deployer.ProcessExecutor{
		Dir:       config.ProjectDir,
		ExtraEnv:  aws.CdkEnv(),
		PassStdin: passStdin,
	}
	return deployer.New(backend.NewLocator(config.ProjectDir), executor, errmap.Mapper{},
		deployer.WithValidationOverride(validationOverride))
}

// BACKENDCTL_ALWAYS_DISABLE_APP_SOURCES_VALIDATION, consulted on every deployment
func validationOverride() bool {
	return viper.GetBool(config.AlwaysDisableAppSourcesValidationKey)
}

func initBranchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&backendID, "backend-id", "", "Backend (application) id")
	cmd.Flags().StringVar(&branchName, "branch", "", "Branch name (default is the current Git branch of the project)")
}

func branchIdentifier() (*backend.BackendIdentifier, error) {
	if backendID == "" {
		return nil, errors.New("--backend-id must be specified")
	}
	branch := branchName
	if branch == "" {
		var err error
		branch, err = git.CurrentBranch(config.ProjectDir)
		if err != nil {
			return nil, fmt.Errorf("Unable to determine branch, use --branch: %w", err)
		}
	}
	return backend.NewBranchIdentifier(backendID, branch)
}

func initSandboxFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&sandboxIdentifier, "identifier", "",
		"Sandbox identifier to use instead of the OS user name")
}

func resolveSandboxIdentifier() (*backend.BackendIdentifier, error) {
	name := sandboxIdentifier
	if name == "" {
		current, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("Unable to determine OS user, use --identifier: %v", err)
		}
		name = current.Username
	}
	id, err := backend.SandboxBackendID(config.ProjectDir, name)
	if err != nil {
		return nil, err
	}
	if config.Debug {
		log.Printf("Sandbox backend id is `%s`", id)
	}
	return backend.NewSandboxIdentifier(id)
}
