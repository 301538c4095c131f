// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/epam/backendctl/cmd/backendctl/backend"
	"github.com/epam/backendctl/cmd/backendctl/config"
	"github.com/epam/backendctl/cmd/backendctl/util"
)

var noValidate bool

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy branch backend",
	Long: `Deploy backend of a branch from a CI/CD pipeline.

Backend TypeScript sources are type-checked before the deployment unless --no-validate
is set, or BACKENDCTL_ALWAYS_DISABLE_APP_SOURCES_VALIDATION=true.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return deploy(cmd)
	},
}

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Destroy branch backend",
	Long:  `Destroy all stacks of a branch backend.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return destroy(cmd)
	},
}

func deploy(cmd *cobra.Command) error {
	id, err := branchIdentifier()
	if err != nil {
		return err
	}
	if config.Verbose {
		log.Printf("Deploying %s", util.HighlightColor(id.String()))
	}
	err = newDeployer(false).Deploy(cmd.Context(), id, &backend.DeployProps{
		DeploymentType:     backend.Branch,
		ValidateAppSources: !noValidate,
	})
	if err != nil {
		return err
	}
	if config.Verbose {
		log.Printf("Deployed %s", util.HighlightColor(id.String()))
	}
	return nil
}

func destroy(cmd *cobra.Command) error {
	id, err := branchIdentifier()
	if err != nil {
		return err
	}
	if config.Verbose {
		log.Printf("Destroying %s", util.HighlightColor(id.String()))
	}
	err = newDeployer(false).Destroy(cmd.Context(), id, &backend.DeployProps{DeploymentType: backend.Branch})
	if err != nil {
		return err
	}
	if config.Verbose {
		log.Printf("Destroyed %s", util.HighlightColor(id.String()))
	}
	return nil
}

func init() {
	initBranchFlags(deployCmd)
	deployCmd.Flags().BoolVar(&noValidate, "no-validate", false, "Skip backend sources type-check")
	initBranchFlags(destroyCmd)
	RootCmd.AddCommand(deployCmd)
	RootCmd.AddCommand(destroyCmd)
}
