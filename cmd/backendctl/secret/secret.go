// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package secret stores backend secrets in AWS SSM Parameter Store under
// /amplify/<backend id>/<branch>/<name>.
package secret

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	awsaws "github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"

	"github.com/epam/backendctl/cmd/backendctl/aws"
	"github.com/epam/backendctl/cmd/backendctl/backend"
	"github.com/epam/backendctl/cmd/backendctl/config"
)

const pathPrefix = "/amplify"

var validName = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

type Secret struct {
	Name        string     `yaml:"name"`
	Value       string     `yaml:"value,omitempty"`
	Version     int64      `yaml:"version"`
	LastUpdated *time.Time `yaml:"lastUpdated,omitempty"`
}

type Client interface {
	Set(ctx context.Context, id *backend.BackendIdentifier, name, value string) (*Secret, error)
	Get(ctx context.Context, id *backend.BackendIdentifier, name string) (*Secret, error)
	List(ctx context.Context, id *backend.BackendIdentifier) ([]Secret, error)
	Remove(ctx context.Context, id *backend.BackendIdentifier, name string) error
	// LastUpdated is nil when no secret exists for id.
	LastUpdated(ctx context.Context, id *backend.BackendIdentifier) (*time.Time, error)
}

type NotFoundError struct {
	Name string
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Secret `%s` not found at `%s`", e.Name, e.Path)
}

type SSMClient struct {
	api ssmiface.SSMAPI
}

func NewSSMClient(api ssmiface.SSMAPI) *SSMClient {
	return &SSMClient{api: api}
}

func NewDefaultClient(region string) (*SSMClient, error) {
	session, err := aws.Session(region, "SSM Parameter Store")
	if err != nil {
		return nil, err
	}
	return NewSSMClient(ssm.New(session)), nil
}

func Path(id *backend.BackendIdentifier) string {
	return fmt.Sprintf("%s/%s/%s", pathPrefix, id.BackendID(), id.BranchName())
}

func parameterName(id *backend.BackendIdentifier, name string) (string, error) {
	if !validName.MatchString(name) {
		return "", fmt.Errorf("Secret name `%s` is not valid; use letters, digits, `_`, `.`, `-`", name)
	}
	return Path(id) + "/" + name, nil
}

func (c *SSMClient) Set(ctx context.Context, id *backend.BackendIdentifier, name, value string) (*Secret, error) {
	parameter, err := parameterName(id, name)
	if err != nil {
		return nil, err
	}
	if config.Debug {
		log.Printf("Setting secret `%s`", parameter)
	}
	out, err := c.api.PutParameterWithContext(ctx, &ssm.PutParameterInput{
		Name:      awsaws.String(parameter),
		Value:     awsaws.String(value),
		Type:      awsaws.String(ssm.ParameterTypeSecureString),
		Overwrite: awsaws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("Unable to set secret `%s`: %w", parameter, err)
	}
	return &Secret{Name: name, Version: awsaws.Int64Value(out.Version)}, nil
}

func (c *SSMClient) Get(ctx context.Context, id *backend.BackendIdentifier, name string) (*Secret, error) {
	parameter, err := parameterName(id, name)
	if err != nil {
		return nil, err
	}
	out, err := c.api.GetParameterWithContext(ctx, &ssm.GetParameterInput{
		Name:           awsaws.String(parameter),
		WithDecryption: awsaws.Bool(true),
	})
	if err != nil {
		if aws.IsNotFound(err) {
			return nil, &NotFoundError{Name: name, Path: Path(id)}
		}
		return nil, fmt.Errorf("Unable to get secret `%s`: %w", parameter, err)
	}
	return fromParameter(out.Parameter, true), nil
}

func (c *SSMClient) List(ctx context.Context, id *backend.BackendIdentifier) ([]Secret, error) {
	var secrets []Secret
	err := c.api.GetParametersByPathPagesWithContext(ctx, &ssm.GetParametersByPathInput{
		Path:           awsaws.String(Path(id)),
		WithDecryption: awsaws.Bool(false),
	}, func(page *ssm.GetParametersByPathOutput, lastPage bool) bool {
		for _, parameter := range page.Parameters {
			secrets = append(secrets, *fromParameter(parameter, false))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("Unable to list secrets under `%s`: %w", Path(id), err)
	}
	sort.Slice(secrets, func(i, j int) bool { return secrets[i].Name < secrets[j].Name })
	return secrets, nil
}

func (c *SSMClient) Remove(ctx context.Context, id *backend.BackendIdentifier, name string) error {
	parameter, err := parameterName(id, name)
	if err != nil {
		return err
	}
	_, err = c.api.DeleteParameterWithContext(ctx, &ssm.DeleteParameterInput{Name: awsaws.String(parameter)})
	if err != nil {
		if aws.IsNotFound(err) {
			return &NotFoundError{Name: name, Path: Path(id)}
		}
		return fmt.Errorf("Unable to remove secret `%s`: %w", parameter, err)
	}
	return nil
}

func (c *SSMClient) LastUpdated(ctx context.Context, id *backend.BackendIdentifier) (*time.Time, error) {
	secrets, err := c.List(ctx, id)
	if err != nil {
		return nil, err
	}
	var last *time.Time
	for i := range secrets {
		updated := secrets[i].LastUpdated
		if updated != nil && (last == nil || updated.After(*last)) {
			last = updated
		}
	}
	return last, nil
}

func fromParameter(parameter *ssm.Parameter, withValue bool) *Secret {
	name := awsaws.StringValue(parameter.Name)
	s := &Secret{
		Name:        name[strings.LastIndex(name, "/")+1:],
		Version:     awsaws.Int64Value(parameter.Version),
		LastUpdated: parameter.LastModifiedDate,
	}
	if withValue {
		s.Value = awsaws.StringValue(parameter.Value)
	}
	return s
}
