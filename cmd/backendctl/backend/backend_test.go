package backend

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBranchIdentifier(t *testing.T) {
	id, err := NewBranchIdentifier("123", "testBranch")
	require.NoError(t, err)
	assert.Equal(t, "123", id.BackendID())
	assert.Equal(t, "testBranch", id.BranchName())
	assert.Equal(t, "123/testBranch", id.String())

	_, err = NewBranchIdentifier("", "testBranch")
	assert.Error(t, err, "empty backend id must be rejected")
	_, err = NewBranchIdentifier("123", "  ")
	assert.Error(t, err, "blank branch name must be rejected")

	var none *BackendIdentifier
	assert.Equal(t, "(default)", none.String())
}

func TestNewSandboxIdentifier(t *testing.T) {
	id, err := NewSandboxIdentifier("app-user")
	require.NoError(t, err)
	assert.Equal(t, SandboxDisambiguator, id.BranchName())
}

func TestDeployPropsOrZero(t *testing.T) {
	var props *DeployProps
	assert.Equal(t, DeployProps{}, props.OrZero())
	assert.Equal(t, DeployProps{DeploymentType: Branch}, (&DeployProps{DeploymentType: Branch}).OrZero())
}

// You probably shouldn't be changing this naming scheme: it is how deployed stacks are found again.
func TestMainStackName(t *testing.T) {
	id, _ := NewBranchIdentifier("testBackendId", "testBranchName")
	assert.Equal(t, "amplify-testBackendId-testBranchName", MainStackName(id))

	id, _ = NewBranchIdentifier("d1234", "feature/login_page")
	assert.Equal(t, "amplify-d1234-feature-login-page", MainStackName(id))

	id, _ = NewBranchIdentifier("d1234", strings.Repeat("b", 200))
	assert.Len(t, MainStackName(id), maxStackNameLength)
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	locator := NewLocator(dir)

	_, err := locator.Locate()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "amplify/backend.ts")
	}

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "amplify"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "amplify", "backend.js"), []byte("export {}"), 0644))
	entry, err := locator.Locate()
	assert.NoError(t, err)
	assert.Equal(t, "amplify/backend.js", entry)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "amplify", "backend.ts"), []byte("export {}"), 0644))
	entry, err = locator.Locate()
	assert.NoError(t, err)
	assert.Equal(t, "amplify/backend.ts", entry, "TypeScript entry takes precedence")
}

func TestLocateIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "amplify", "backend.ts"), 0755))
	_, err := NewLocator(dir).Locate()
	assert.Error(t, err)
}

func TestSandboxBackendID(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my_app")
	require.NoError(t, os.MkdirAll(dir, 0755))

	id, err := SandboxBackendID(dir, "jane.doe")
	assert.NoError(t, err)
	assert.Equal(t, "myapp-janedoe", id, "directory name is used without package.json")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name": "@acme/web-shop"}`), 0644))
	id, err = SandboxBackendID(dir, "jane")
	assert.NoError(t, err)
	assert.Equal(t, "webshop-jane", id)

	again, _ := SandboxBackendID(dir, "jane")
	assert.Equal(t, id, again)

	_, err = SandboxBackendID(dir, "...")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{`), 0644))
	_, err = SandboxBackendID(dir, "jane")
	assert.Error(t, err)
}
