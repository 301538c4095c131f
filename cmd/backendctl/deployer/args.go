// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package deployer

import (
	"fmt"
	"strconv"

	"github.com/epam/backendctl/cmd/backendctl/backend"
)

type Action string

const (
	ActionDeploy  Action = "deploy"
	ActionDestroy Action = "destroy"
)

const (
	Npx            = "npx"
	AppRunner      = "npx tsx"
	BuildOutputDir = ".amplify/artifacts/cdk.out"

	contextBackendID         = "backend-id"
	contextBranchName        = "branch-name"
	contextDeploymentType    = "deployment-type"
	contextSecretLastUpdated = "secretLastUpdated"
)

// BuildArgs assembles the `npx` argument vector for a CDK invocation. The order of
// elements is significant to CDK and identical inputs always yield identical vectors.
func BuildArgs(action Action, entryFile string, id *backend.BackendIdentifier, props *backend.DeployProps) []string {
	p := props.OrZero()
	args := []string{
		"cdk",
		string(action),
		"--ci",
		"--app",
		fmt.Sprintf("'%s %s'", AppRunner, entryFile),
		"--all",
		"--output",
		BuildOutputDir,
	}

	if id != nil {
		args = appendContext(args, contextBackendID, id.BackendID())
		if p.DeploymentType != backend.Sandbox {
			args = appendContext(args, contextBranchName, id.BranchName())
			if action == ActionDeploy {
				args = append(args, "--require-approval", "never")
			}
		}
	}

	if p.DeploymentType != "" {
		args = appendContext(args, contextDeploymentType, string(p.DeploymentType))
	}

	if action == ActionDeploy {
		if p.DeploymentType == backend.Sandbox {
			args = append(args, "--hotswap-fallback", "--method=direct")
		}
		if p.SecretLastUpdated != nil {
			args = appendContext(args, contextSecretLastUpdated,
				strconv.FormatInt(p.SecretLastUpdated.UnixMilli(), 10))
		}
	}

	if action == ActionDestroy {
		args = append(args, "--force")
	}
	return args
}

func appendContext(args []string, key, value string) []string {
	return append(args, "--context", key+"="+value)
}

// TypeCheckArgs is the `npx` argument vector validating backend sources without emitting output.
func TypeCheckArgs(entryFile string) []string {
	return []string{
		"tsc",
		"--noEmit",
		"--skipLibCheck",
		"--module",
		"node16",
		"--moduleResolution",
		"node16",
		"--target",
		"es2022",
		entryFile,
	}
}
