/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package cmd

import (
	"testing"

	"github.com/stackhand/stackhand/internal/deploy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSyncCommand_Exists(t *testing.T) {
	syncCmd := findCommand(rootCmd, "sync")

	require.NotNil(t, syncCmd, "sync command should be registered")
	assert.Equal(t, "sync [stack-name]", syncCmd.Use)
}

func TestSyncCommand_DefaultsToRollback(t *testing.T) {
	mockDeployer, mockResolver, _ := setupDeployMocks(t)
	resetFlags(t, rootCmd, findCommand(rootCmd, "sync"))

	mockResolver.On("Resolve", "template.yaml", mock.Anything).Return("body", nil).Once()
	mockDeployer.On("Sync", mock.Anything, mock.MatchedBy(func(req *deploy.Request) bool {
		return req.StackName == "my-app" && req.TemplateBody == "body"
	}), deploy.FailureModeRollback, 0).Return(&deploy.Result{StackName: "my-app"}, nil).Once()

	rootCmd.SetArgs([]string{"sync", "my-app", "--template", "template.yaml"})
	err := rootCmd.Execute()

	require.NoError(t, err)
	mockDeployer.AssertExpectations(t)
}

func TestSyncCommand_NoChangesOutcome(t *testing.T) {
	mockDeployer, mockResolver, _ := setupDeployMocks(t)
	resetFlags(t, rootCmd, findCommand(rootCmd, "sync"))

	mockResolver.On("Resolve", "template.yaml", mock.Anything).Return("body", nil).Once()
	mockDeployer.On("Sync", mock.Anything, mock.Anything, deploy.FailureModeRollback, 0).
		Return(&deploy.Result{StackName: "my-app", NoChanges: true}, nil).Once()

	rootCmd.SetArgs([]string{"sync", "my-app", "--template", "template.yaml"})
	err := rootCmd.Execute()

	require.NoError(t, err)
	mockDeployer.AssertExpectations(t)
}

func TestSyncCommand_InvalidFailureMode(t *testing.T) {
	mockDeployer, _, _ := setupDeployMocks(t)
	resetFlags(t, rootCmd, findCommand(rootCmd, "sync"))

	rootCmd.SetArgs([]string{"sync", "my-app", "--template", "template.yaml", "--on-failure", "EXPLODE"})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid failure mode")
	mockDeployer.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncCommand_RecoversFailedStackInDeleteMode(t *testing.T) {
	mockDeployer, mockResolver, _ := setupDeployMocks(t)
	resetFlags(t, rootCmd, findCommand(rootCmd, "sync"))

	opErr := &deploy.StackOperationError{
		StackName: "my-app",
		Operation: deploy.StackOperationCreate,
		Status:    "CREATE_FAILED",
		Reason:    "Resource creation cancelled",
	}

	mockResolver.On("Resolve", "template.yaml", mock.Anything).Return("body", nil).Once()
	mockDeployer.On("Sync", mock.Anything, mock.Anything, deploy.FailureModeDelete, 0).
		Return(nil, opErr).Once()
	mockDeployer.On("RecoverFailedStack", mock.Anything, "my-app").Return(nil).Once()

	rootCmd.SetArgs([]string{"sync", "my-app", "--template", "template.yaml", "--on-failure", "DELETE"})
	err := rootCmd.Execute()

	// Recovery cleans up, but the deployment failure is still reported
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CREATE_FAILED")
	mockDeployer.AssertExpectations(t)
}

func TestSyncCommand_NoRecoveryInRollbackMode(t *testing.T) {
	mockDeployer, mockResolver, _ := setupDeployMocks(t)
	resetFlags(t, rootCmd, findCommand(rootCmd, "sync"))

	opErr := &deploy.StackOperationError{
		StackName: "my-app",
		Operation: deploy.StackOperationUpdate,
		Status:    "UPDATE_ROLLBACK_COMPLETE",
	}

	mockResolver.On("Resolve", "template.yaml", mock.Anything).Return("body", nil).Once()
	mockDeployer.On("Sync", mock.Anything, mock.Anything, deploy.FailureModeRollback, 0).
		Return(nil, opErr).Once()

	rootCmd.SetArgs([]string{"sync", "my-app", "--template", "template.yaml"})
	err := rootCmd.Execute()

	require.Error(t, err)
	mockDeployer.AssertNotCalled(t, "RecoverFailedStack", mock.Anything, mock.Anything)
}
