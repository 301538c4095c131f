// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package config

import (
	"fmt"
	"log"
	"os"

	"github.com/mattn/go-isatty"
)

const AlwaysDisableAppSourcesValidationKey = "always-disable-app-sources-validation"

var (
	ConfigFile string
	ProjectDir string

	AwsProfile                  string
	AwsRegion                   string
	AwsPreferProfileCredentials bool
	AwsUseIamRoleCredentials    bool

	Verbose bool
	Debug   bool
	Trace   bool

	LogDestination string
	TtyMode        string
	Tty            bool
	TtyForced      bool

	AggWarnings       bool
	OsEnvironmentMode string
)

func Update() {
	if err := update(); err != nil {
		log.Fatal(err)
	}
}

func update() error {
	switch LogDestination {
	case "stdout":
		log.SetOutput(os.Stdout)
	case "stderr", "":
	default:
		return fmt.Errorf("Unknown --log-destination `%s`", LogDestination)
	}

	if Trace {
		Debug = true
	}
	if Debug {
		Verbose = true
	}

	switch OsEnvironmentMode {
	case "everything", "strict":
	case "":
		OsEnvironmentMode = "everything"
	default:
		return fmt.Errorf("Unknown --os-environment `%s`", OsEnvironmentMode)
	}

	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsTerminal(os.Stderr.Fd())
	switch TtyMode {
	case "true":
		Tty = true
		TtyForced = !tty
	case "false":
		Tty = false
	case "autodetect", "":
		Tty = tty
	default:
		return fmt.Errorf("Unknown --tty `%s`", TtyMode)
	}
	return nil
}
