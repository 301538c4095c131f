// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/epam/backendctl/cmd/backendctl/config"
	"github.com/epam/backendctl/cmd/backendctl/util"
)

const envVarNameAwsRegion = "AWS_REGION"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "backendctl",
	Short: "Backend CTL deploys application backends with AWS CDK",
	Long: `Backend CTL deploys application backends with AWS CDK:
- per-developer sandbox deploy / watch / delete, sandbox secrets;
- branch deploy / destroy for CI pipelines;
- backend stack status and local toolchain check.`,
	SilenceUsage: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Update()
		if config.Debug {
			log.Printf("Backend CTL %s %s\n", util.Version(), runtime.Version())
		}
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		util.PrintAllWarnings()
	},
}

func Execute() {
	ctx := watchInterrupt()
	err := RootCmd.ExecuteContext(ctx)
	util.Done()
	if err != nil {
		fmt.Println(util.ErrorChain(err))
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&config.ConfigFile, "config", "", "Config file (default is $HOME/.backendctl-config.{yaml,json})")
	RootCmd.PersistentFlags().StringVarP(&config.ProjectDir, "project-dir", "C", ".", "Project root directory containing `amplify/`")

	RootCmd.PersistentFlags().StringVar(&config.AwsProfile, "aws_profile", "", "AWS ~/.aws/credentials profile, AWS_PROFILE")
	awsRegion := util.Coalesce(os.Getenv(envVarNameAwsRegion), os.Getenv("AWS_DEFAULT_REGION"))
	RootCmd.PersistentFlags().StringVar(&config.AwsRegion, "aws_region", awsRegion, "AWS region, AWS_REGION or AWS_DEFAULT_REGION")
	RootCmd.PersistentFlags().BoolVar(&config.AwsUseIamRoleCredentials, "aws_use_iam_role_credentials", true, "Try EC2 instance credentials")
	RootCmd.PersistentFlags().BoolVar(&config.AwsPreferProfileCredentials, "aws_prefer_profile_credentials", false, "Try AWS CLI config profile credentials first, before OS env")

	RootCmd.PersistentFlags().BoolVarP(&config.Verbose, "verbose", "v", true, "Verbose mode")
	RootCmd.PersistentFlags().BoolVarP(&config.Debug, "debug", "d", false, "Print debug info. Or set BACKENDCTL_DEBUG=1")
	RootCmd.PersistentFlags().BoolVar(&config.Trace, "trace", false, "Print detailed trace info. Or set BACKENDCTL_TRACE=1")
	RootCmd.PersistentFlags().StringVar(&config.LogDestination, "log-destination", "stderr", "stderr or stdout")
	RootCmd.PersistentFlags().StringVar(&config.TtyMode, "tty", "autodetect", "Terminal mode for colors, etc. true / false. Or set BACKENDCTL_TTY")

	RootCmd.PersistentFlags().BoolVar(&config.AggWarnings, "all-warnings", true, "Repeat all warnings before [successful] exit")
	RootCmd.PersistentFlags().StringVar(&config.OsEnvironmentMode, "os-environment", "everything",
		"OS environment passed to CDK: everything or strict (PATH, HOME, AWS_*, NODE_* etc. only)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	home, err := homedir.Dir()
	if err != nil {
		util.Warn("Unable to determine HOME directory: %v", err)
	}
	if config.ConfigFile != "" {
		viper.SetConfigFile(config.ConfigFile)
	} else if err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".backendctl-config")
	}

	viper.SetEnvPrefix("backendctl")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err == nil {
		if config.Verbose {
			log.Printf("Using config file %s", viper.ConfigFileUsed())
		}
	}
	if viper.GetBool("debug") {
		config.Debug = true
	}
	if viper.GetBool("trace") {
		config.Trace = true
	}
	if tty := viper.GetString("tty"); tty != "" {
		config.TtyMode = tty
	}
	if mode := viper.GetString("os-environment"); mode != "" {
		config.OsEnvironmentMode = mode
	}
}
