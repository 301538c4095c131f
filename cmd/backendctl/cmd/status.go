// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/epam/backendctl/cmd/backendctl/aws"
	"github.com/epam/backendctl/cmd/backendctl/backend"
	"github.com/epam/backendctl/cmd/backendctl/config"
)

var statusSandbox bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend stack status",
	Long: `Show status and outputs of the backend main CloudFormation stack.

Use --backend-id / --branch for a branch backend, or --sandbox for the personal sandbox.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return status(cmd)
	},
}

func status(cmd *cobra.Command) error {
	var id *backend.BackendIdentifier
	var err error
	if statusSandbox {
		id, err = resolveSandboxIdentifier()
	} else {
		id, err = branchIdentifier()
	}
	if err != nil {
		return err
	}
	api, err := aws.CloudFormation(config.AwsRegion)
	if err != nil {
		return err
	}
	name := backend.MainStackName(id)
	stack, err := aws.DescribeStack(cmd.Context(), api, name)
	if err != nil {
		return err
	}
	if stack == nil {
		return fmt.Errorf("Backend %s is not deployed: stack `%s` not found", id, name)
	}
	return printYaml(cmd.OutOrStdout(), stack)
}

func init() {
	initBranchFlags(statusCmd)
	initSandboxFlags(statusCmd)
	statusCmd.Flags().BoolVar(&statusSandbox, "sandbox", false, "Show personal sandbox status")
	RootCmd.AddCommand(statusCmd)
}
