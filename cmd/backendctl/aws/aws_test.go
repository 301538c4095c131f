package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	awsaws "github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudformation"
	"github.com/aws/aws-sdk-go/service/cloudformation/cloudformationiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epam/backendctl/cmd/backendctl/config"
)

type fakeCloudFormation struct {
	cloudformationiface.CloudFormationAPI
	stacks map[string]*cloudformation.Stack
	err    error
}

func (f *fakeCloudFormation) DescribeStacksWithContext(ctx awsaws.Context, in *cloudformation.DescribeStacksInput, _ ...request.Option) (*cloudformation.DescribeStacksOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	stack, exist := f.stacks[awsaws.StringValue(in.StackName)]
	if !exist {
		return nil, awserr.New("ValidationError", "Stack with id "+awsaws.StringValue(in.StackName)+" does not exist", nil)
	}
	return &cloudformation.DescribeStacksOutput{Stacks: []*cloudformation.Stack{stack}}, nil
}

func TestDescribeStack(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	api := &fakeCloudFormation{stacks: map[string]*cloudformation.Stack{
		"amplify-app-main": {
			StackName:    awsaws.String("amplify-app-main"),
			StackStatus:  awsaws.String("UPDATE_COMPLETE"),
			CreationTime: &created,
			Outputs: []*cloudformation.Output{
				{OutputKey: awsaws.String("awsAppsyncApiEndpoint"), OutputValue: awsaws.String("https://api.example.com/graphql")},
			},
		},
	}}

	status, err := DescribeStack(context.Background(), api, "amplify-app-main")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, "UPDATE_COMPLETE", status.Status)
	assert.Equal(t, &created, status.LastUpdated)
	assert.Equal(t, map[string]string{"awsAppsyncApiEndpoint": "https://api.example.com/graphql"}, status.Outputs)

	status, err = DescribeStack(context.Background(), api, "amplify-app-other")
	assert.NoError(t, err)
	assert.Nil(t, status, "missing stack is not an error")

	api.err = awserr.New("AccessDenied", "not allowed", nil)
	_, err = DescribeStack(context.Background(), api, "amplify-app-main")
	assert.Error(t, err)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(awserr.New("ParameterNotFound", "", nil)))
	assert.True(t, IsNotFound(awserr.New("ValidationError", "Stack with id x does not exist", nil)))
	assert.False(t, IsNotFound(awserr.New("ValidationError", "Template format error", nil)))
	assert.False(t, IsNotFound(errors.New("ParameterNotFound")))
}

func TestCdkEnv(t *testing.T) {
	config.AwsProfile, config.AwsRegion = "", ""
	assert.Empty(t, CdkEnv())

	config.AwsProfile, config.AwsRegion = "dev", "eu-west-1"
	defer func() { config.AwsProfile, config.AwsRegion = "", "" }()
	assert.Equal(t, []string{"AWS_PROFILE=dev", "AWS_REGION=eu-west-1", "AWS_DEFAULT_REGION=eu-west-1"}, CdkEnv())
}
