// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package aws

import (
	"context"
	"fmt"
	"log"
	"time"

	awsaws "github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudformation"
	"github.com/aws/aws-sdk-go/service/cloudformation/cloudformationiface"

	"github.com/epam/backendctl/cmd/backendctl/config"
)

type StackStatus struct {
	Name        string            `yaml:"name"`
	Status      string            `yaml:"status"`
	Reason      string            `yaml:"reason,omitempty"`
	LastUpdated *time.Time        `yaml:"lastUpdated,omitempty"`
	Outputs     map[string]string `yaml:"outputs,omitempty"`
}

func CloudFormation(region string) (cloudformationiface.CloudFormationAPI, error) {
	session, err := Session(region, "CloudFormation")
	if err != nil {
		return nil, err
	}
	return cloudformation.New(session), nil
}

// DescribeStack returns nil status and nil error when the stack does not exist.
func DescribeStack(ctx context.Context, api cloudformationiface.CloudFormationAPI, name string) (*StackStatus, error) {
	if config.Trace {
		log.Printf("Describing CloudFormation stack `%s`", name)
	}
	out, err := api.DescribeStacksWithContext(ctx, &cloudformation.DescribeStacksInput{StackName: awsaws.String(name)})
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("Unable to describe CloudFormation stack `%s`: %v", name, err)
	}
	if len(out.Stacks) == 0 {
		return nil, nil
	}
	stack := out.Stacks[0]
	status := &StackStatus{
		Name:   awsaws.StringValue(stack.StackName),
		Status: awsaws.StringValue(stack.StackStatus),
		Reason: awsaws.StringValue(stack.StackStatusReason),
	}
	if stack.LastUpdatedTime != nil {
		status.LastUpdated = stack.LastUpdatedTime
	} else {
		status.LastUpdated = stack.CreationTime
	}
	if len(stack.Outputs) > 0 {
		status.Outputs = make(map[string]string, len(stack.Outputs))
		for _, output := range stack.Outputs {
			status.Outputs[awsaws.StringValue(output.OutputKey)] = awsaws.StringValue(output.OutputValue)
		}
	}
	return status, nil
}
