/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package deploy

import (
	"context"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
)

// RecoverFailedStack drives a failed stack back to a stable state: a failed
// update is rolled back, and a stack stuck in a status no further operation
// can target is deleted. The deployment failure has already been reported by
// the time this runs, so cleanup problems are logged as warnings rather than
// returned. A stack that turns out not to exist counts as recovered.
func (d *AWSDeployer) RecoverFailedStack(ctx context.Context, stackName string) error {
	status, err := d.stackStatus(ctx, stackName)
	if err != nil {
		if isStackNotFound(err, stackName) {
			return nil
		}
		return err
	}

	if status == string(types.StackStatusUpdateFailed) {
		d.logger.Info("stack failed to update, rolling back", "stack", stackName)
		if _, err := d.client.RollbackStack(ctx, &cloudformation.RollbackStackInput{
			StackName: awssdk.String(stackName),
		}); err != nil {
			if isStackNotFound(err, stackName) {
				return nil
			}
			return fmt.Errorf("failed to roll back stack %s: %w", stackName, err)
		}

		d.tailEvents(ctx, stackName, d.deploymentTime, FailureModeDelete)

		status, err = d.waitForRollback(ctx, stackName)
		if err != nil {
			if isStackNotFound(err, stackName) {
				return nil
			}
			return err
		}
	}

	switch types.StackStatus(status) {
	case types.StackStatusCreateFailed, types.StackStatusRollbackComplete, types.StackStatusRollbackFailed:
		if types.StackStatus(status) == types.StackStatusCreateFailed {
			// A create that never rolled back still has a visible
			// event history; one that reached ROLLBACK_COMPLETE does
			// not.
			d.tailEvents(ctx, stackName, d.deploymentTime, FailureModeDelete)
		}
		d.logger.Info("deleting failed stack", "stack", stackName, "status", status)
		if _, err := d.client.DeleteStack(ctx, &cloudformation.DeleteStackInput{
			StackName: awssdk.String(stackName),
		}); err != nil {
			if isStackNotFound(err, stackName) {
				return nil
			}
			return fmt.Errorf("failed to delete stack %s: %w", stackName, err)
		}
		if err := d.waitForDelete(ctx, stackName); err != nil {
			d.logger.Warn("stack cleanup did not finish, delete it manually", "stack", stackName, "error", err)
		}
	default:
		d.logger.Info("stack is in a stable state, no recovery needed", "stack", stackName, "status", status)
	}
	return nil
}

// waitForRollback polls until the stack finishes rolling back. No native
// waiter covers the UPDATE_FAILED to UPDATE_ROLLBACK_COMPLETE transition.
func (d *AWSDeployer) waitForRollback(ctx context.Context, stackName string) (string, error) {
	for attempt := 0; attempt < d.rollbackPolicy.MaxAttempts; attempt++ {
		status, err := d.stackStatus(ctx, stackName)
		if err != nil {
			return "", err
		}
		if strings.Contains(status, "ROLLBACK_COMPLETE") || status == string(types.StackStatusRollbackFailed) {
			return status, nil
		}
		if err := d.sleep(ctx, d.rollbackPolicy.Delay); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("timed out waiting for stack %s to roll back", stackName)
}

// stackStatus reads the stack's current status.
func (d *AWSDeployer) stackStatus(ctx context.Context, stackName string) (string, error) {
	resp, err := d.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: awssdk.String(stackName),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Stacks) == 0 {
		return "", fmt.Errorf("stack %s missing from describe response", stackName)
	}
	return string(resp.Stacks[0].StackStatus), nil
}
