/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package deploy

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
)

// DeleteStack removes stackName, tailing the teardown events until the stack
// is gone. Deleting a stack that does not exist is a no-op.
func (d *AWSDeployer) DeleteStack(ctx context.Context, stackName string) error {
	watermark := d.lastEventTime(ctx, stackName)

	if _, err := d.client.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName: awssdk.String(stackName),
	}); err != nil {
		if isStackNotFound(err, stackName) {
			return nil
		}
		return fmt.Errorf("failed to delete stack %s: %w", stackName, err)
	}

	d.deploymentTime = watermark
	d.tailEvents(ctx, stackName, watermark, FailureModeDelete)

	return d.waitForDelete(ctx, stackName)
}

// waitForDelete blocks on the native delete waiter with the slow policy.
func (d *AWSDeployer) waitForDelete(ctx context.Context, stackName string) error {
	waiter := cloudformation.NewStackDeleteCompleteWaiter(d.client, func(o *cloudformation.StackDeleteCompleteWaiterOptions) {
		o.MinDelay = d.deletePolicy.Delay
		o.MaxDelay = d.deletePolicy.Delay
	})
	err := waiter.Wait(ctx, &cloudformation.DescribeStacksInput{
		StackName: awssdk.String(stackName),
	}, d.deletePolicy.maxWait())
	if err != nil {
		return fmt.Errorf("stack %s was not deleted within the wait window: %w", stackName, err)
	}
	return nil
}
