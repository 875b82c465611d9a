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

func TestDeleteStack(t *testing.T) {
	client := &aws.MockCloudFormationClient{}
	d, buf := newTestDeployer(client)

	// Watermark probe sees the pre-delete history.
	client.On("DescribeStackEvents", mock.Anything, mock.Anything).
		Return(eventsPage("", event("prior", "Bucket", "CREATE_COMPLETE", testTime.Add(-time.Hour))), nil).Once()

	client.On("DeleteStack", mock.Anything, mock.MatchedBy(func(in *cloudformation.DeleteStackInput) bool {
		return awssdk.ToString(in.StackName) == "my-app"
	})).Return(&cloudformation.DeleteStackOutput{}, nil).Once()

	// Teardown events, then the stack vanishes for the waiter.
	client.On("DescribeStackEvents", mock.Anything, mock.Anything).
		Return(eventsPage("",
			rootEvent("done", "DELETE_COMPLETE", testTime.Add(2*time.Second)),
			event("going", "Bucket", "DELETE_IN_PROGRESS", testTime.Add(time.Second)),
		), nil).Once()
	client.On("DescribeStacks", mock.Anything, mock.Anything).
		Return(describeOutput("my-app", types.StackStatusDeleteComplete), nil).Once()

	err := d.DeleteStack(context.Background(), "my-app")

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "DELETE_IN_PROGRESS")
	client.AssertExpectations(t)
}

func TestDeleteStack_MissingStackIsANoOp(t *testing.T) {
	client := &aws.MockCloudFormationClient{}
	d, _ := newTestDeployer(client)

	client.On("DescribeStackEvents", mock.Anything, mock.Anything).
		Return(nil, notFoundError("my-app")).Once()
	client.On("DeleteStack", mock.Anything, mock.Anything).
		Return(nil, notFoundError("my-app")).Once()

	err := d.DeleteStack(context.Background(), "my-app")

	assert.NoError(t, err)
	client.AssertNotCalled(t, "DescribeStacks", mock.Anything, mock.Anything)
}

func TestDeleteStack_SubmissionFailure(t *testing.T) {
	client := &aws.MockCloudFormationClient{}
	d, _ := newTestDeployer(client)

	client.On("DescribeStackEvents", mock.Anything, mock.Anything).
		Return(eventsPage(""), nil).Once()
	client.On("DeleteStack", mock.Anything, mock.Anything).
		Return(nil, errors.New("stack has termination protection enabled")).Once()

	err := d.DeleteStack(context.Background(), "my-app")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete stack my-app")
	assert.Contains(t, err.Error(), "termination protection")
}

func TestDeleteStack_WaiterTimeout(t *testing.T) {
	client := &aws.MockCloudFormationClient{}
	d, _ := newTestDeployer(client)

	client.On("DescribeStackEvents", mock.Anything, mock.Anything).
		Return(eventsPage(""), nil).Once()
	client.On("DeleteStack", mock.Anything, mock.Anything).
		Return(&cloudformation.DeleteStackOutput{}, nil).Once()
	client.On("DescribeStackEvents", mock.Anything, mock.Anything).
		Return(eventsPage("", rootEvent("done", "DELETE_COMPLETE", testTime.Add(time.Second))), nil).Once()
	client.On("DescribeStacks", mock.Anything, mock.Anything).
		Return(describeOutput("my-app", types.StackStatusDeleteFailed), nil)

	err := d.DeleteStack(context.Background(), "my-app")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "was not deleted within the wait window")
}
