// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package backend

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type DeploymentType string

const (
	Sandbox DeploymentType = "SANDBOX"
	Branch  DeploymentType = "BRANCH"

	// SandboxDisambiguator takes the place of the branch name for sandbox identifiers.
	SandboxDisambiguator = "sandbox"
)

// BackendIdentifier names a deployment target. A nil *BackendIdentifier targets
// the local default app entry point only.
type BackendIdentifier struct {
	backendID  string
	branchName string
}

func NewBranchIdentifier(backendID, branchName string) (*BackendIdentifier, error) {
	backendID = strings.TrimSpace(backendID)
	branchName = strings.TrimSpace(branchName)
	if backendID == "" {
		return nil, errors.New("Backend id must not be empty")
	}
	if branchName == "" {
		return nil, fmt.Errorf("Branch name for backend `%s` must not be empty", backendID)
	}
	return &BackendIdentifier{backendID: backendID, branchName: branchName}, nil
}

func NewSandboxIdentifier(backendID string) (*BackendIdentifier, error) {
	return NewBranchIdentifier(backendID, SandboxDisambiguator)
}

func (id *BackendIdentifier) BackendID() string {
	return id.backendID
}

func (id *BackendIdentifier) BranchName() string {
	return id.branchName
}

func (id *BackendIdentifier) String() string {
	if id == nil {
		return "(default)"
	}
	return fmt.Sprintf("%s/%s", id.backendID, id.branchName)
}

// DeployProps is the zero value when nil.
type DeployProps struct {
	DeploymentType     DeploymentType
	SecretLastUpdated  *time.Time
	ValidateAppSources bool
}

func (p *DeployProps) OrZero() DeployProps {
	if p == nil {
		return DeployProps{}
	}
	return *p
}

var stackNameIllegal = regexp.MustCompile(`[^A-Za-z0-9-]+`)

const maxStackNameLength = 128

// MainStackName is the CloudFormation name of the root stack deployed for id.
// Changing it orphans every stack already deployed under the old name.
func MainStackName(id *BackendIdentifier) string {
	name := fmt.Sprintf("amplify-%s-%s", id.backendID, id.branchName)
	name = stackNameIllegal.ReplaceAllString(name, "-")
	if len(name) > maxStackNameLength {
		name = name[:maxStackNameLength]
	}
	return strings.TrimRight(name, "-")
}
