// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package deployer

import (
	"context"
	"log"
	"strings"

	"github.com/epam/backendctl/cmd/backendctl/backend"
	"github.com/epam/backendctl/cmd/backendctl/config"
	"github.com/epam/backendctl/cmd/backendctl/errmap"
)

// Executor runs a child process and returns an error on non-zero exit.
type Executor interface {
	Execute(ctx context.Context, command string, args []string) error
}

type ErrorMapper interface {
	GetError(raw error, ctx errmap.Context) *errmap.ClassifiedError
}

// Deployer translates deploy and destroy requests into CDK invocations.
// It holds no mutable state; concurrent calls spawn independent child processes.
type Deployer struct {
	locator            backend.Locator
	executor           Executor
	mapper             ErrorMapper
	validationOverride func() bool
}

type Option func(*Deployer)

// WithValidationOverride installs the process-wide toggle that disables source
// validation regardless of DeployProps. It is consulted on every call.
func WithValidationOverride(disabled func() bool) Option {
	return func(d *Deployer) {
		d.validationOverride = disabled
	}
}

func New(locator backend.Locator, executor Executor, mapper ErrorMapper, options ...Option) *Deployer {
	d := &Deployer{
		locator:  locator,
		executor: executor,
		mapper:   mapper,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

func (d *Deployer) Deploy(ctx context.Context, id *backend.BackendIdentifier, props *backend.DeployProps) error {
	entry, err := d.locator.Locate()
	if err != nil {
		return err
	}
	if props.OrZero().ValidateAppSources && !d.validationDisabled() {
		if config.Verbose {
			log.Printf("Validating backend sources in `%s`", entry)
		}
		if err := d.executor.Execute(ctx, Npx, TypeCheckArgs(entry)); err != nil {
			return err
		}
	}
	return d.invoke(ctx, ActionDeploy, BuildArgs(ActionDeploy, entry, id, props))
}

// Destroy never validates sources and ignores DeployProps.SecretLastUpdated.
func (d *Deployer) Destroy(ctx context.Context, id *backend.BackendIdentifier, props *backend.DeployProps) error {
	entry, err := d.locator.Locate()
	if err != nil {
		return err
	}
	return d.invoke(ctx, ActionDestroy, BuildArgs(ActionDestroy, entry, id, props))
}

func (d *Deployer) invoke(ctx context.Context, action Action, args []string) error {
	if config.Debug {
		log.Printf("Invoking %s %s", Npx, strings.Join(args, " "))
	}
	if err := d.executor.Execute(ctx, Npx, args); err != nil {
		return d.mapper.GetError(err, errmap.Context{Action: string(action)})
	}
	return nil
}

func (d *Deployer) validationDisabled() bool {
	return d.validationOverride != nil && d.validationOverride()
}
