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
	"github.com/epam/backendctl/cmd/backendctl/deployer"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check toolchain and project layout",
	Long:  `Check that Node.js, npm, and npx are installed and the project has a backend entry point.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := deployer.CheckRequirements(cmd.Context()); err != nil {
			return err
		}
		entry, err := backend.NewLocator(config.ProjectDir).Locate()
		if err != nil {
			return err
		}
		if config.Verbose {
			log.Printf("Backend entry point is `%s`", entry)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(checkCmd)
}
