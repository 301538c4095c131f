package deployer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epam/backendctl/cmd/backendctl/backend"
	"github.com/epam/backendctl/cmd/backendctl/errmap"
)

type staticLocator struct {
	entry string
	err   error
}

func (l staticLocator) Locate() (string, error) {
	return l.entry, l.err
}

type call struct {
	command string
	args    []string
}

type recordingExecutor struct {
	lock  sync.Mutex
	calls []call
	fail  func(args []string) error
}

func (e *recordingExecutor) Execute(ctx context.Context, command string, args []string) error {
	e.lock.Lock()
	e.calls = append(e.calls, call{command, append([]string(nil), args...)})
	e.lock.Unlock()
	if e.fail != nil {
		return e.fail(args)
	}
	return nil
}

var baseArgs = []string{
	"cdk",
	"deploy",
	"--ci",
	"--app",
	"'npx tsx amplify/backend.ts'",
	"--all",
	"--output",
	".amplify/artifacts/cdk.out",
}

var typeCheckArgs = []string{
	"tsc",
	"--noEmit",
	"--skipLibCheck",
	"--module",
	"node16",
	"--moduleResolution",
	"node16",
	"--target",
	"es2022",
	"amplify/backend.ts",
}

func withBase(action string, args ...string) []string {
	res := append([]string(nil), baseArgs...)
	res[1] = action
	return append(res, args...)
}

func newTestDeployer(override *bool) (*Deployer, *recordingExecutor) {
	executor := &recordingExecutor{}
	options := []Option{}
	if override != nil {
		options = append(options, WithValidationOverride(func() bool { return *override }))
	}
	return New(staticLocator{entry: "amplify/backend.ts"}, executor, errmap.Mapper{}, options...), executor
}

func branchID(t *testing.T) *backend.BackendIdentifier {
	id, err := backend.NewBranchIdentifier("123", "testBranch")
	require.NoError(t, err)
	return id
}

var secretLastUpdated = time.UnixMilli(12345678)

func TestDeployWithoutOptions(t *testing.T) {
	d, executor := newTestDeployer(nil)

	require.NoError(t, d.Deploy(context.Background(), nil, nil))
	require.Len(t, executor.calls, 1)
	assert.Equal(t, Npx, executor.calls[0].command)
	assert.Len(t, executor.calls[0].args, 8)
	assert.Equal(t, baseArgs, executor.calls[0].args)
}

func TestDeployBranch(t *testing.T) {
	d, executor := newTestDeployer(nil)

	require.NoError(t, d.Deploy(context.Background(), branchID(t), nil))
	require.Len(t, executor.calls, 1)
	assert.Equal(t, withBase("deploy",
		"--context", "backend-id=123",
		"--context", "branch-name=testBranch",
		"--require-approval", "never",
	), executor.calls[0].args)
}

func TestDeploySandboxProps(t *testing.T) {
	d, executor := newTestDeployer(nil)

	err := d.Deploy(context.Background(), nil, &backend.DeployProps{
		DeploymentType:    backend.Sandbox,
		SecretLastUpdated: &secretLastUpdated,
	})
	require.NoError(t, err)
	require.Len(t, executor.calls, 1)
	assert.Equal(t, withBase("deploy",
		"--context", "deployment-type=SANDBOX",
		"--hotswap-fallback",
		"--method=direct",
		"--context", "secretLastUpdated=12345678",
	), executor.calls[0].args)
}

func TestDeployIdentifierWithSandboxProps(t *testing.T) {
	d, executor := newTestDeployer(nil)

	err := d.Deploy(context.Background(), branchID(t), &backend.DeployProps{
		DeploymentType:    backend.Sandbox,
		SecretLastUpdated: &secretLastUpdated,
	})
	require.NoError(t, err)
	require.Len(t, executor.calls, 1)
	assert.Len(t, executor.calls[0].args, 16)
	assert.Equal(t, withBase("deploy",
		"--context", "backend-id=123",
		"--context", "deployment-type=SANDBOX",
		"--hotswap-fallback",
		"--method=direct",
		"--context", "secretLastUpdated=12345678",
	), executor.calls[0].args)
}

func TestDestroySandbox(t *testing.T) {
	d, executor := newTestDeployer(nil)

	err := d.Destroy(context.Background(), branchID(t), &backend.DeployProps{
		DeploymentType:     backend.Sandbox,
		SecretLastUpdated:  &secretLastUpdated,
		ValidateAppSources: true,
	})
	require.NoError(t, err)
	require.Len(t, executor.calls, 1, "destroy never validates sources")
	assert.Len(t, executor.calls[0].args, 13)
	assert.Equal(t, withBase("destroy",
		"--context", "backend-id=123",
		"--context", "deployment-type=SANDBOX",
		"--force",
	), executor.calls[0].args)
}

func TestDestroyBranch(t *testing.T) {
	d, executor := newTestDeployer(nil)

	err := d.Destroy(context.Background(), branchID(t), &backend.DeployProps{DeploymentType: backend.Branch})
	require.NoError(t, err)
	require.Len(t, executor.calls, 1)
	assert.Equal(t, withBase("destroy",
		"--context", "backend-id=123",
		"--context", "branch-name=testBranch",
		"--context", "deployment-type=BRANCH",
		"--force",
	), executor.calls[0].args)
}

func TestDeployTypeCheckBranch(t *testing.T) {
	d, executor := newTestDeployer(nil)

	err := d.Deploy(context.Background(), branchID(t), &backend.DeployProps{
		DeploymentType:     backend.Branch,
		ValidateAppSources: true,
	})
	require.NoError(t, err)
	require.Len(t, executor.calls, 2)
	assert.Equal(t, Npx, executor.calls[0].command)
	assert.Equal(t, typeCheckArgs, executor.calls[0].args)
	assert.Equal(t, withBase("deploy",
		"--context", "backend-id=123",
		"--context", "branch-name=testBranch",
		"--require-approval", "never",
		"--context", "deployment-type=BRANCH",
	), executor.calls[1].args)
}

func TestDeployTypeCheckSandbox(t *testing.T) {
	d, executor := newTestDeployer(nil)

	err := d.Deploy(context.Background(), nil, &backend.DeployProps{
		DeploymentType:     backend.Sandbox,
		ValidateAppSources: true,
	})
	require.NoError(t, err)
	require.Len(t, executor.calls, 2)
	assert.Equal(t, typeCheckArgs, executor.calls[0].args)
	assert.Equal(t, withBase("deploy",
		"--context", "deployment-type=SANDBOX",
		"--hotswap-fallback",
		"--method=direct",
	), executor.calls[1].args)
}

func TestDeployValidationOverride(t *testing.T) {
	override := true
	d, executor := newTestDeployer(&override)

	err := d.Deploy(context.Background(), branchID(t), &backend.DeployProps{
		DeploymentType:     backend.Branch,
		ValidateAppSources: true,
	})
	require.NoError(t, err)
	require.Len(t, executor.calls, 1)
	assert.Equal(t, withBase("deploy",
		"--context", "backend-id=123",
		"--context", "branch-name=testBranch",
		"--require-approval", "never",
		"--context", "deployment-type=BRANCH",
	), executor.calls[0].args)

	executor.calls = nil
	err = d.Deploy(context.Background(), nil, &backend.DeployProps{
		DeploymentType:     backend.Sandbox,
		ValidateAppSources: true,
	})
	require.NoError(t, err)
	require.Len(t, executor.calls, 1)
	assert.Equal(t, withBase("deploy",
		"--context", "deployment-type=SANDBOX",
		"--hotswap-fallback",
		"--method=direct",
	), executor.calls[0].args)
}

func TestDeployValidationOverrideReadPerCall(t *testing.T) {
	override := true
	d, executor := newTestDeployer(&override)
	props := &backend.DeployProps{DeploymentType: backend.Sandbox, ValidateAppSources: true}

	require.NoError(t, d.Deploy(context.Background(), nil, props))
	assert.Len(t, executor.calls, 1)

	override = false
	require.NoError(t, d.Deploy(context.Background(), nil, props))
	assert.Len(t, executor.calls, 3, "toggle removal restores validation on the next call")
}

func TestDeployDeploymentTypeIsPassedVerbatim(t *testing.T) {
	d, executor := newTestDeployer(nil)

	require.NoError(t, d.Deploy(context.Background(), nil, &backend.DeployProps{DeploymentType: "PREVIEW"}))
	assert.Equal(t, withBase("deploy", "--context", "deployment-type=PREVIEW"), executor.calls[0].args)
}

func TestDeployReturnsHumanReadableErrors(t *testing.T) {
	d, executor := newTestDeployer(nil)
	raw := errors.New("Access Denied")
	executor.fail = func([]string) error { return raw }

	err := d.Deploy(context.Background(), branchID(t), &backend.DeployProps{
		DeploymentType:    backend.Sandbox,
		SecretLastUpdated: &secretLastUpdated,
	})
	require.Error(t, err)
	assert.Equal(t,
		"[AccessDenied]: The deployment role does not have sufficient permissions to perform this deployment.",
		err.Error())
	assert.Same(t, raw, errors.Unwrap(err))
	assert.True(t, errmap.Is(err, errmap.AccessDenied))
}

func TestDestroyReturnsClassifiedErrors(t *testing.T) {
	d, executor := newTestDeployer(nil)
	raw := errors.New("exit status 1")
	executor.fail = func([]string) error { return raw }

	err := d.Destroy(context.Background(), nil, nil)
	assert.True(t, errmap.Is(err, errmap.DeploymentFailed))
	assert.Contains(t, err.Error(), "destroy")
	assert.Same(t, raw, errors.Unwrap(err))
}

func TestDeployTypeCheckFailureIsNotClassified(t *testing.T) {
	d, executor := newTestDeployer(nil)
	compileErr := errors.New("amplify/backend.ts(3,1): error TS2304: Cannot find name 'foo'. Access Denied")
	executor.fail = func(args []string) error {
		if args[0] == "tsc" {
			return compileErr
		}
		return nil
	}

	err := d.Deploy(context.Background(), nil, &backend.DeployProps{ValidateAppSources: true})
	assert.Same(t, compileErr, err)
	assert.Len(t, executor.calls, 1, "cdk must not run after failed validation")
}

func TestDeployLocatorFailure(t *testing.T) {
	executor := &recordingExecutor{}
	notFound := errors.New("Backend entry file not found")
	d := New(staticLocator{err: notFound}, executor, errmap.Mapper{})

	assert.Same(t, notFound, d.Deploy(context.Background(), nil, nil))
	assert.Same(t, notFound, d.Destroy(context.Background(), nil, nil))
	assert.Empty(t, executor.calls)
}
