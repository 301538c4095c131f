// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/epam/backendctl/cmd/backendctl/config"
	"github.com/epam/backendctl/cmd/backendctl/sandbox"
	"github.com/epam/backendctl/cmd/backendctl/secret"
	"github.com/epam/backendctl/cmd/backendctl/util"
)

var (
	sandboxOnce     bool
	sandboxDebounce time.Duration
	sandboxExclude  []string
	sandboxValidate bool
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Deploy personal sandbox backend and watch for changes",
	Long: `Deploy personal cloud sandbox of the backend in the current project.

Sandbox identifier is derived from the project name and the OS user, or --identifier.
Backend sources under amplify/ are watched and the sandbox is redeployed on change,
unless --once is specified. Hit ^C to stop watching; the sandbox is kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSandbox(cmd)
	},
}

var sandboxDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete personal sandbox backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		box, err := newSandbox()
		if err != nil {
			return err
		}
		if err := box.Delete(cmd.Context()); err != nil {
			return err
		}
		if config.Verbose {
			log.Printf("Sandbox %s deleted", util.HighlightColor(box.Identifier().String()))
		}
		return nil
	},
}

func newSandbox() (*sandbox.Sandbox, error) {
	id, err := resolveSandboxIdentifier()
	if err != nil {
		return nil, err
	}
	var timestamps sandbox.SecretTimestamps
	if client, err := secret.NewDefaultClient(config.AwsRegion); err != nil {
		util.Warn("Sandbox secrets are not available: %v", err)
	} else {
		timestamps = client
	}
	return sandbox.New(newDeployer(true), timestamps, id, sandbox.Options{
		ProjectDir:         config.ProjectDir,
		Debounce:           sandboxDebounce,
		ValidateAppSources: sandboxValidate,
		Exclude:            sandboxExclude,
	}), nil
}

func runSandbox(cmd *cobra.Command) error {
	box, err := newSandbox()
	if err != nil {
		return err
	}
	if sandboxOnce {
		return box.Deploy(cmd.Context())
	}
	return box.Watch(cmd.Context())
}

func init() {
	initSandboxFlags(sandboxCmd)
	sandboxCmd.Flags().BoolVar(&sandboxOnce, "once", false, "Deploy once and exit, do not watch for changes")
	sandboxCmd.Flags().DurationVar(&sandboxDebounce, "debounce", sandbox.DefaultDebounce,
		"Quiet period after the last change before redeploying")
	sandboxCmd.Flags().StringSliceVar(&sandboxExclude, "exclude", nil,
		"Paths relative to the project root to ignore while watching")
	sandboxCmd.Flags().BoolVar(&sandboxValidate, "validate", true, "Type-check backend sources before each deployment")
	sandboxCmd.AddCommand(sandboxDeleteCmd)
	RootCmd.AddCommand(sandboxCmd)
}
