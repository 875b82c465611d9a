/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package deploy

import (
	"context"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
)

// ExecuteChangeSet commits the changeset. The submission instant becomes the
// event-tail watermark for the WaitForExecute that follows.
func (d *AWSDeployer) ExecuteChangeSet(ctx context.Context, cs *ChangeSet, disableRollback bool) error {
	d.deploymentTime = d.now().UTC()
	_, err := d.client.ExecuteChangeSet(ctx, &cloudformation.ExecuteChangeSetInput{
		ChangeSetName:   awssdk.String(cs.ID),
		StackName:       awssdk.String(cs.StackName),
		DisableRollback: awssdk.Bool(disableRollback),
	})
	if err != nil {
		return fmt.Errorf("failed to execute changeset %s on stack %s: %w", cs.Name, cs.StackName, err)
	}
	return nil
}

// ExecuteWaitInput configures WaitForExecute.
type ExecuteWaitInput struct {
	StackName       string
	Operation       StackOperation
	FailureMode     FailureMode
	DisableRollback bool
	MaxWaitMinutes  int
}

// WaitForExecute tails the stack's events for the running operation, blocks
// until the stack reaches a terminal state and renders outputs on success.
// A terminal failure carries the last observed stack status and reason
// verbatim, plus manual next steps when automatic rollback was off.
func (d *AWSDeployer) WaitForExecute(ctx context.Context, input ExecuteWaitInput) (*Result, error) {
	if input.FailureMode == "" {
		input.FailureMode = FailureModeRollback
	}
	minutes := input.MaxWaitMinutes
	if minutes <= 0 {
		minutes = defaultMaxWaitMinutes
	}

	fmt.Fprintf(d.out, "\n%s - Waiting for stack create/update to complete\n", d.now().Format(time.DateTime))

	d.tailEvents(ctx, input.StackName, d.deploymentTime, input.FailureMode)

	describeInput := &cloudformation.DescribeStacksInput{StackName: awssdk.String(input.StackName)}
	maxWait := time.Duration(minutes) * time.Minute

	var waitErr error
	switch input.Operation {
	case StackOperationCreate:
		waiter := cloudformation.NewStackCreateCompleteWaiter(d.client, func(o *cloudformation.StackCreateCompleteWaiterOptions) {
			o.MinDelay = d.stackDelay
			o.MaxDelay = d.stackDelay
		})
		waitErr = waiter.Wait(ctx, describeInput, maxWait)
	case StackOperationUpdate:
		waiter := cloudformation.NewStackUpdateCompleteWaiter(d.client, func(o *cloudformation.StackUpdateCompleteWaiterOptions) {
			o.MinDelay = d.stackDelay
			o.MaxDelay = d.stackDelay
		})
		waitErr = waiter.Wait(ctx, describeInput, maxWait)
	default:
		return nil, fmt.Errorf("invalid stack operation %q", input.Operation)
	}

	if waitErr != nil {
		status, reason := d.lastStackStatus(ctx, input.StackName)
		opErr := &StackOperationError{
			StackName: input.StackName,
			Operation: input.Operation,
			Status:    status,
			Reason:    reason,
			Err:       waitErr,
		}
		if input.DisableRollback && input.FailureMode != FailureModeDelete {
			opErr.Hint = manualRollbackHint(input.StackName)
		}
		return nil, opErr
	}

	result := &Result{StackName: input.StackName, Operation: input.Operation}

	outputs, err := d.stackOutputs(ctx, input.StackName)
	if err != nil {
		// Outputs are meaningless for a stack that deletes itself on
		// failure; for everything else the caller should hear about it.
		if input.FailureMode == FailureModeDelete {
			return result, nil
		}
		return nil, err
	}
	if len(outputs) > 0 {
		d.renderOutputs(outputs)
		result.Outputs = outputs
	}
	return result, nil
}

// lastStackStatus fetches the stack's current status and reason for error
// reporting. Best effort: unknown is reported as empty strings.
func (d *AWSDeployer) lastStackStatus(ctx context.Context, stackName string) (status, reason string) {
	resp, err := d.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: awssdk.String(stackName),
	})
	if err != nil || len(resp.Stacks) == 0 {
		return "", ""
	}
	stack := resp.Stacks[0]
	return string(stack.StackStatus), awssdk.ToString(stack.StackStatusReason)
}

// stackOutputs reads the stack's declared outputs.
func (d *AWSDeployer) stackOutputs(ctx context.Context, stackName string) ([]Output, error) {
	resp, err := d.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: awssdk.String(stackName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read outputs for stack %s: %w", stackName, err)
	}
	if len(resp.Stacks) == 0 {
		return nil, nil
	}
	outputs := make([]Output, 0, len(resp.Stacks[0].Outputs))
	for _, o := range resp.Stacks[0].Outputs {
		outputs = append(outputs, Output{
			Key:         awssdk.ToString(o.OutputKey),
			Description: awssdk.ToString(o.Description),
			Value:       awssdk.ToString(o.OutputValue),
		})
	}
	return outputs, nil
}
