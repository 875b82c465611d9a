/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package deploy

import (
	"context"
	"errors"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/stackhand/stackhand/internal/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func describeOutputWithReason(stackName string, status types.StackStatus, reason string) *cloudformation.DescribeStacksOutput {
	out := describeOutput(stackName, status)
	out.Stacks[0].StackStatusReason = awssdk.String(reason)
	return out
}

func describeOutputWithOutputs(stackName string, status types.StackStatus, outputs ...types.Output) *cloudformation.DescribeStacksOutput {
	out := describeOutput(stackName, status)
	out.Stacks[0].Outputs = outputs
	return out
}

func TestExecuteChangeSet(t *testing.T) {
	client := &aws.MockCloudFormationClient{}
	d, _ := newTestDeployer(client)

	client.On("ExecuteChangeSet", mock.Anything, mock.MatchedBy(func(in *cloudformation.ExecuteChangeSetInput) bool {
		return awssdk.ToString(in.ChangeSetName) == "cs-id" &&
			awssdk.ToString(in.StackName) == "my-app" &&
			awssdk.ToBool(in.DisableRollback)
	})).Return(&cloudformation.ExecuteChangeSetOutput{}, nil).Once()

	err := d.ExecuteChangeSet(context.Background(), &ChangeSet{ID: "cs-id", Name: "cs", StackName: "my-app"}, true)

	require.NoError(t, err)
	assert.Equal(t, testTime.UTC(), d.deploymentTime, "submission instant becomes the tail watermark")
}

func TestExecuteChangeSet_Failure(t *testing.T) {
	client := &aws.MockCloudFormationClient{}
	d, _ := newTestDeployer(client)

	client.On("ExecuteChangeSet", mock.Anything, mock.Anything).
		Return(nil, errors.New("changeset expired")).Once()

	err := d.ExecuteChangeSet(context.Background(), &ChangeSet{ID: "cs-id", Name: "cs", StackName: "my-app"}, false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute changeset cs on stack my-app")
	assert.Contains(t, err.Error(), "changeset expired")
}

func TestWaitForExecute_CreateSucceeds(t *testing.T) {
	client := &aws.MockCloudFormationClient{}
	d, buf := newTestDeployer(client)

	client.On("DescribeStackEvents", mock.Anything, mock.Anything).
		Return(eventsPage("", rootEvent("root", "CREATE_COMPLETE", testTime.Add(time.Second))), nil)
	client.On("DescribeStacks", mock.Anything, mock.Anything).
		Return(describeOutput("my-app", types.StackStatusCreateComplete), nil)

	result, err := d.WaitForExecute(context.Background(), ExecuteWaitInput{
		StackName: "my-app",
		Operation: StackOperationCreate,
	})

	require.NoError(t, err)
	assert.Equal(t, "my-app", result.StackName)
	assert.Equal(t, StackOperationCreate, result.Operation)
	assert.False(t, result.NoChanges)
	assert.Empty(t, result.Outputs)
	assert.Contains(t, buf.String(), "Waiting for stack create/update to complete")
}

func TestWaitForExecute_RendersOutputs(t *testing.T) {
	client := &aws.MockCloudFormationClient{}
	d, buf := newTestDeployer(client)

	client.On("DescribeStackEvents", mock.Anything, mock.Anything).
		Return(eventsPage("", rootEvent("root", "UPDATE_COMPLETE", testTime.Add(time.Second))), nil)
	client.On("DescribeStacks", mock.Anything, mock.Anything).
		Return(describeOutputWithOutputs("my-app", types.StackStatusUpdateComplete, types.Output{
			OutputKey:   awssdk.String("ApiUrl"),
			OutputValue: awssdk.String("https://api.example.com"),
			Description: awssdk.String("Public endpoint"),
		}), nil)

	result, err := d.WaitForExecute(context.Background(), ExecuteWaitInput{
		StackName: "my-app",
		Operation: StackOperationUpdate,
	})

	require.NoError(t, err)
	require.Len(t, result.Outputs, 1)
	assert.Equal(t, Output{Key: "ApiUrl", Value: "https://api.example.com", Description: "Public endpoint"}, result.Outputs[0])

	out := buf.String()
	assert.Contains(t, out, "CloudFormation outputs from deployed stack")
	assert.Contains(t, out, "ApiUrl")
	assert.Contains(t, out, "https://api.example.com")
}

func TestWaitForExecute_FailureCarriesStatusAndReason(t *testing.T) {
	client := &aws.MockCloudFormationClient{}
	d, _ := newTestDeployer(client)

	client.On("DescribeStackEvents", mock.Anything, mock.Anything).
		Return(eventsPage("", rootEvent("root", "ROLLBACK_COMPLETE", testTime.Add(time.Second))), nil)
	client.On("DescribeStacks", mock.Anything, mock.Anything).
		Return(describeOutputWithReason("my-app", types.StackStatusRollbackComplete, "Resource creation cancelled"), nil)

	_, err := d.WaitForExecute(context.Background(), ExecuteWaitInput{
		StackName: "my-app",
		Operation: StackOperationCreate,
	})

	var opErr *StackOperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "my-app", opErr.StackName)
	assert.Equal(t, StackOperationCreate, opErr.Operation)
	assert.Equal(t, "ROLLBACK_COMPLETE", opErr.Status)
	assert.Equal(t, "Resource creation cancelled", opErr.Reason)
	assert.Empty(t, opErr.Hint, "rollback was not disabled, no manual steps needed")
}

func TestWaitForExecute_HintWhenRollbackDisabled(t *testing.T) {
	client := &aws.MockCloudFormationClient{}
	d, _ := newTestDeployer(client)

	client.On("DescribeStackEvents", mock.Anything, mock.Anything).
		Return(eventsPage("", rootEvent("root", "UPDATE_FAILED", testTime.Add(time.Second))), nil)
	client.On("DescribeStacks", mock.Anything, mock.Anything).
		Return(describeOutputWithReason("my-app", types.StackStatusUpdateFailed, "Access denied"), nil)

	_, err := d.WaitForExecute(context.Background(), ExecuteWaitInput{
		StackName:       "my-app",
		Operation:       StackOperationUpdate,
		DisableRollback: true,
	})

	var opErr *StackOperationError
	require.ErrorAs(t, err, &opErr)
	assert.Contains(t, opErr.Hint, "rollback-stack --stack-name my-app")
}

func TestWaitForExecute_NoHintWhenFailedStackGetsDeleted(t *testing.T) {
	// Manual rollback steps make no sense for a stack the caller is about
	// to delete anyway.
	client := &aws.MockCloudFormationClient{}
	d, _ := newTestDeployer(client)

	client.On("DescribeStackEvents", mock.Anything, mock.Anything).
		Return(eventsPage("", rootEvent("root", "CREATE_FAILED", testTime.Add(time.Second))), nil)
	client.On("DescribeStacks", mock.Anything, mock.Anything).
		Return(describeOutputWithReason("my-app", types.StackStatusCreateFailed, "Resource limit exceeded"), nil)

	_, err := d.WaitForExecute(context.Background(), ExecuteWaitInput{
		StackName:       "my-app",
		Operation:       StackOperationCreate,
		FailureMode:     FailureModeDelete,
		DisableRollback: true,
	})

	var opErr *StackOperationError
	require.ErrorAs(t, err, &opErr)
	assert.Empty(t, opErr.Hint)
}

func TestWaitForExecute_OutputsFetchFailureIgnoredInDeleteMode(t *testing.T) {
	// With on-failure DELETE the stack can vanish between the waiter
	// passing and the outputs read; success already happened.
	client := &aws.MockCloudFormationClient{}
	d, _ := newTestDeployer(client)

	client.On("DescribeStackEvents", mock.Anything, mock.Anything).
		Return(eventsPage("", rootEvent("root", "CREATE_COMPLETE", testTime.Add(time.Second))), nil)
	client.On("DescribeStacks", mock.Anything, mock.Anything).
		Return(describeOutput("my-app", types.StackStatusCreateComplete), nil).Once()
	client.On("DescribeStacks", mock.Anything, mock.Anything).
		Return(nil, notFoundError("my-app")).Once()

	result, err := d.WaitForExecute(context.Background(), ExecuteWaitInput{
		StackName:   "my-app",
		Operation:   StackOperationCreate,
		FailureMode: FailureModeDelete,
	})

	require.NoError(t, err)
	assert.Equal(t, "my-app", result.StackName)
	assert.Empty(t, result.Outputs)
}

func TestWaitForExecute_OutputsFetchFailureSurfacedOtherwise(t *testing.T) {
	client := &aws.MockCloudFormationClient{}
	d, _ := newTestDeployer(client)

	client.On("DescribeStackEvents", mock.Anything, mock.Anything).
		Return(eventsPage("", rootEvent("root", "CREATE_COMPLETE", testTime.Add(time.Second))), nil)
	client.On("DescribeStacks", mock.Anything, mock.Anything).
		Return(describeOutput("my-app", types.StackStatusCreateComplete), nil).Once()
	client.On("DescribeStacks", mock.Anything, mock.Anything).
		Return(nil, errors.New("throttled: rate exceeded")).Once()

	_, err := d.WaitForExecute(context.Background(), ExecuteWaitInput{
		StackName: "my-app",
		Operation: StackOperationCreate,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read outputs for stack my-app")
}

func TestWaitForExecute_InvalidOperation(t *testing.T) {
	client := &aws.MockCloudFormationClient{}
	d, _ := newTestDeployer(client)

	client.On("DescribeStackEvents", mock.Anything, mock.Anything).
		Return(eventsPage("", rootEvent("root", "CREATE_COMPLETE", testTime.Add(time.Second))), nil)

	_, err := d.WaitForExecute(context.Background(), ExecuteWaitInput{
		StackName: "my-app",
		Operation: StackOperation("DESTROY"),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid stack operation "DESTROY"`)
}
