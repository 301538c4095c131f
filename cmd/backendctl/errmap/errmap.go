// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package errmap turns opaque CDK child process failures into a closed set of
// categories with remediation hints.
package errmap

import (
	"errors"
	"fmt"
	"regexp"
)

type Category string

const (
	ExpiredToken     Category = "ExpiredToken"
	AccessDenied     Category = "AccessDenied"
	BootstrapFailure Category = "BootstrapFailure"
	StackInProgress  Category = "StackInProgress"
	LimitExceeded    Category = "LimitExceeded"
	SynthError       Category = "SynthError"
	DeploymentFailed Category = "DeploymentFailed"
)

// Context describes the operation that failed.
type Context struct {
	// Action is `deploy` or `destroy`.
	Action string
}

type ClassifiedError struct {
	Category Category
	Message  string
	cause    error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("[%s]: %s", e.Category, e.Message)
}

func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

type knownError struct {
	category Category
	pattern  *regexp.Regexp
	message  string
}

// evaluated in order, first match wins
var knownErrors = []knownError{
	{
		category: ExpiredToken,
		pattern:  regexp.MustCompile(`ExpiredToken|security token included in the request is (expired|invalid)`),
		message:  "The security token included in the request is invalid. Refresh your AWS credentials and try again.",
	},
	{
		category: AccessDenied,
		pattern:  regexp.MustCompile(`Access Denied|AccessDenied|is not authorized to perform`),
		message:  "The deployment role does not have sufficient permissions to perform this deployment.",
	},
	{
		category: BootstrapFailure,
		pattern:  regexp.MustCompile(`Has the environment been bootstrapped|is not bootstrapped`),
		message:  "This AWS account is not bootstrapped. Run `cdk bootstrap aws://{YOUR_ACCOUNT_ID}/{YOUR_REGION}` locally to resolve this.",
	},
	{
		category: StackInProgress,
		pattern:  regexp.MustCompile(`_IN_PROGRESS state and can ?not be updated|is in [A-Z_]+_IN_PROGRESS state|UPDATE_ROLLBACK_FAILED`),
		message:  "The stack is in a state that does not allow this operation. Wait for the in-progress operation to finish, or recover the stack, and try again.",
	},
	{
		category: LimitExceeded,
		pattern:  regexp.MustCompile(`LimitExceeded|[Ll]imit [Ee]xceeded|Maximum number of .* reached`),
		message:  "An AWS service limit was reached. Remove unused resources or request a quota increase, then try again.",
	},
	{
		category: SynthError,
		pattern:  regexp.MustCompile(`(SyntaxError|ReferenceError|TypeError)( \[[A-Z_]+\])?:`),
		message:  "Unable to build the backend. Check your backend definition in the `amplify` folder.",
	},
}

// GetError classifies raw. It is pure and safe for concurrent use.
func GetError(raw error, ctx Context) *ClassifiedError {
	text := ""
	if raw != nil {
		text = raw.Error()
	}
	for _, known := range knownErrors {
		if known.pattern.MatchString(text) {
			return &ClassifiedError{Category: known.category, Message: known.message, cause: raw}
		}
	}
	action := ctx.Action
	if action == "" {
		action = "deploy"
	}
	return &ClassifiedError{
		Category: DeploymentFailed,
		Message:  fmt.Sprintf("The %s failed. Inspect the underlying cause for details.", action),
		cause:    raw,
	}
}

// Is reports whether err carries a classified error of category.
func Is(err error, category Category) bool {
	var classified *ClassifiedError
	return errors.As(err, &classified) && classified.Category == category
}

// Mapper adapts GetError to the deployer's error mapper dependency.
type Mapper struct{}

func (Mapper) GetError(raw error, ctx Context) *ClassifiedError {
	return GetError(raw, ctx)
}
