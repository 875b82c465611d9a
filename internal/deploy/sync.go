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

// Sync converges the stack immediately, without a changeset preview. An
// existing stack is updated in place with rollback disabled when the mode is
// DO_NOTHING; a new stack is created with the mode as its on-failure action.
// Both paths feed into the same execution wait and event tail as the
// changeset flow.
func (d *AWSDeployer) Sync(ctx context.Context, req *Request, mode FailureMode, maxWaitMinutes int) (*Result, error) {
	if mode == "" {
		mode = FailureModeRollback
	}

	exists, err := d.HasStack(ctx, req.StackName)
	if err != nil {
		return nil, err
	}

	params, err := d.reconcileParameters(ctx, req.StackName, req.Parameters, exists)
	if err != nil {
		return nil, err
	}

	body, templateURL, err := d.placeTemplate(ctx, req.TemplateBody)
	if err != nil {
		return nil, err
	}

	disableRollback := mode == FailureModeDoNothing

	if exists {
		// Watermark from the stack's own event clock, not the local one,
		// so only events from this update render.
		d.deploymentTime = d.lastEventTime(ctx, req.StackName)

		input := &cloudformation.UpdateStackInput{
			StackName:       awssdk.String(req.StackName),
			Parameters:      toSDKParameters(params),
			Capabilities:    toSDKCapabilities(req.Capabilities),
			Tags:            toSDKTags(req.Tags),
			DisableRollback: awssdk.Bool(disableRollback),
		}
		if templateURL != "" {
			input.TemplateURL = awssdk.String(templateURL)
		} else {
			input.TemplateBody = awssdk.String(body)
		}
		if req.RoleARN != "" {
			input.RoleARN = awssdk.String(req.RoleARN)
		}
		if len(req.NotificationARNs) > 0 {
			input.NotificationARNs = req.NotificationARNs
		}

		d.logger.Debug("updating stack", "stack", req.StackName, "mode", mode)
		if _, err := d.client.UpdateStack(ctx, input); err != nil {
			if isNoChangeReason(err.Error()) {
				d.logger.Info("no changes to deploy", "stack", req.StackName)
				return &Result{StackName: req.StackName, Operation: StackOperationUpdate, NoChanges: true}, nil
			}
			return nil, d.submitError(req.StackName, "update", err)
		}

		return d.WaitForExecute(ctx, ExecuteWaitInput{
			StackName:       req.StackName,
			Operation:       StackOperationUpdate,
			FailureMode:     mode,
			DisableRollback: disableRollback,
			MaxWaitMinutes:  maxWaitMinutes,
		})
	}

	// A brand new stack has no prior events to skip.
	d.deploymentTime = time.Time{}

	input := &cloudformation.CreateStackInput{
		StackName:    awssdk.String(req.StackName),
		Parameters:   toSDKParameters(params),
		Capabilities: toSDKCapabilities(req.Capabilities),
		Tags:         toSDKTags(req.Tags),
		OnFailure:    mode.onFailure(),
	}
	if templateURL != "" {
		input.TemplateURL = awssdk.String(templateURL)
	} else {
		input.TemplateBody = awssdk.String(body)
	}
	if req.RoleARN != "" {
		input.RoleARN = awssdk.String(req.RoleARN)
	}
	if len(req.NotificationARNs) > 0 {
		input.NotificationARNs = req.NotificationARNs
	}

	d.logger.Debug("creating stack", "stack", req.StackName, "mode", mode)
	if _, err := d.client.CreateStack(ctx, input); err != nil {
		return nil, d.submitError(req.StackName, "create", err)
	}

	return d.WaitForExecute(ctx, ExecuteWaitInput{
		StackName:       req.StackName,
		Operation:       StackOperationCreate,
		FailureMode:     mode,
		DisableRollback: disableRollback,
		MaxWaitMinutes:  maxWaitMinutes,
	})
}

// submitError classifies a create/update submission failure the same way the
// changeset path does.
func (d *AWSDeployer) submitError(stackName, verb string, err error) error {
	if isBucketRegionMismatch(err) {
		return &RegionMismatchError{StackName: stackName, Err: err}
	}
	return fmt.Errorf("failed to %s stack %s: %w", verb, stackName, err)
}
