/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/
package deploy

import (
	"context"
	"fmt"
	"os"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
)

// CreateAndWaitForChangeSet runs the full changeset lifecycle: submit, wait
// for creation to finish, then describe and render the resulting changes.
// A *ChangeSetEmptyError from the wait is returned as-is so callers can
// treat "nothing to deploy" as a normal outcome.
func (d *AWSDeployer) CreateAndWaitForChangeSet(ctx context.Context, req *Request) (*ChangeSet, error) {
	cs, err := d.CreateChangeSet(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := d.WaitForChangeSet(ctx, cs); err != nil {
		return nil, err
	}
	if _, err := d.DescribeChangeSet(ctx, cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// CreateChangeSet derives the changeset type from the stack's existence,
// reconciles the requested parameters against the deployed stack and submits
// the changeset.
func (d *AWSDeployer) CreateChangeSet(ctx context.Context, req *Request) (*ChangeSet, error) {
	exists, err := d.HasStack(ctx, req.StackName)
	if err != nil {
		return nil, err
	}

	changeSetType := ChangeSetTypeCreate
	if exists {
		changeSetType = ChangeSetTypeUpdate
	}

	params, err := d.reconcileParameters(ctx, req.StackName, req.Parameters, exists)
	if err != nil {
		return nil, err
	}

	// The unix-time suffix keeps names unique per invocation; the
	// description shows up in the console's "created by" column.
	name := fmt.Sprintf("%s%d", changeSetPrefix, d.now().Unix())
	description := fmt.Sprintf("Created by stackhand at %s UTC", d.now().UTC().Format("2006-01-02T15:04:05"))

	input := &cloudformation.CreateChangeSetInput{
		ChangeSetName: awssdk.String(name),
		StackName:     awssdk.String(req.StackName),
		ChangeSetType: types.ChangeSetType(changeSetType),
		Description:   awssdk.String(description),
		Parameters:    toSDKParameters(params),
		Capabilities:  toSDKCapabilities(req.Capabilities),
		Tags:          toSDKTags(req.Tags),
	}

	body, templateURL, err := d.placeTemplate(ctx, req.TemplateBody)
	if err != nil {
		return nil, err
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

	d.logger.Debug("submitting changeset", "stack", req.StackName, "changeset", name, "type", changeSetType)
	resp, err := d.client.CreateChangeSet(ctx, input)
	if err != nil {
		if isBucketRegionMismatch(err) {
			return nil, &RegionMismatchError{StackName: req.StackName, Err: err}
		}
		return nil, &ChangeSetError{StackName: req.StackName, Reason: err.Error()}
	}

	return &ChangeSet{
		ID:        awssdk.ToString(resp.Id),
		Name:      name,
		StackName: req.StackName,
		Type:      changeSetType,
	}, nil
}

// WaitForChangeSet polls until the changeset reaches a terminal state. A
// FAILED set whose reason says there is nothing to change comes back as
// *ChangeSetEmptyError; describe-call failures say nothing about the
// changeset itself and are surfaced as-is.
func (d *AWSDeployer) WaitForChangeSet(ctx context.Context, cs *ChangeSet) error {
	fmt.Fprintf(d.out, "\nWaiting for changeset to be created..\n")

	for attempt := 0; attempt < d.changeSetPolicy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, err := d.client.DescribeChangeSet(ctx, &cloudformation.DescribeChangeSetInput{
			ChangeSetName: awssdk.String(cs.ID),
			StackName:     awssdk.String(cs.StackName),
		})
		if err != nil {
			return fmt.Errorf("failed to describe changeset %s: %w", cs.Name, err)
		}

		switch resp.Status {
		case types.ChangeSetStatusCreateComplete:
			return nil
		case types.ChangeSetStatusFailed:
			reason := awssdk.ToString(resp.StatusReason)
			if isNoChangeReason(reason) {
				return &ChangeSetEmptyError{StackName: cs.StackName}
			}
			return &ChangeSetError{StackName: cs.StackName, Status: string(resp.Status), Reason: reason}
		case types.ChangeSetStatusCreatePending, types.ChangeSetStatusCreateInProgress:
			if err := d.sleep(ctx, d.changeSetPolicy.Delay); err != nil {
				return err
			}
		default:
			return &ChangeSetError{StackName: cs.StackName, Status: string(resp.Status), Reason: awssdk.ToString(resp.StatusReason)}
		}
	}

	return fmt.Errorf("timed out waiting for changeset %s on stack %s", cs.Name, cs.StackName)
}

// DescribeChangeSet collects every change in the set and renders them grouped
// by action. An empty changeset still renders a placeholder row: executing
// one can carry side effects such as notification or tag updates.
func (d *AWSDeployer) DescribeChangeSet(ctx context.Context, cs *ChangeSet) ([]Change, error) {
	paginator := cloudformation.NewDescribeChangeSetPaginator(d.client, &cloudformation.DescribeChangeSetInput{
		ChangeSetName: awssdk.String(cs.ID),
		StackName:     awssdk.String(cs.StackName),
	})

	var changes []Change
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe changeset %s: %w", cs.Name, err)
		}
		for _, change := range page.Changes {
			rc := change.ResourceChange
			if rc == nil {
				continue
			}
			replacement := string(rc.Replacement)
			if replacement == "" {
				replacement = "N/A"
			}
			changes = append(changes, Change{
				Action:            string(rc.Action),
				LogicalResourceID: awssdk.ToString(rc.LogicalResourceId),
				ResourceType:      awssdk.ToString(rc.ResourceType),
				Replacement:       replacement,
			})
		}
	}

	d.renderChanges(changes)
	return changes, nil
}

// DeleteChangeSet removes a changeset that will not be executed, so
// abandoned sets do not pile up against the per-stack changeset limit.
func (d *AWSDeployer) DeleteChangeSet(ctx context.Context, cs *ChangeSet) error {
	_, err := d.client.DeleteChangeSet(ctx, &cloudformation.DeleteChangeSetInput{
		ChangeSetName: awssdk.String(cs.ID),
		StackName:     awssdk.String(cs.StackName),
	})
	if err != nil {
		return fmt.Errorf("failed to delete changeset %s on stack %s: %w", cs.Name, cs.StackName, err)
	}
	return nil
}

// reconcileParameters drops use-previous-value references that cannot be
// satisfied: every one of them for a new stack, and those naming parameters
// the deployed template does not declare for an existing stack.
func (d *AWSDeployer) reconcileParameters(ctx context.Context, stackName string, params []Parameter, exists bool) ([]Parameter, error) {
	if !exists {
		kept := make([]Parameter, 0, len(params))
		for _, p := range params {
			if !p.UsePrevious {
				kept = append(kept, p)
			}
		}
		return kept, nil
	}

	summary, err := d.client.GetTemplateSummary(ctx, &cloudformation.GetTemplateSummaryInput{
		StackName: awssdk.String(stackName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get template summary for stack %s: %w", stackName, err)
	}

	declared := make(map[string]bool, len(summary.Parameters))
	for _, decl := range summary.Parameters {
		declared[awssdk.ToString(decl.ParameterKey)] = true
	}

	kept := make([]Parameter, 0, len(params))
	for _, p := range params {
		if p.UsePrevious && !declared[p.Key] {
			continue
		}
		kept = append(kept, p)
	}
	return kept, nil
}

// placeTemplate decides between an inline template body and an uploaded
// TemplateURL. The control plane caps inline bodies, so callers deploying
// large templates configure an uploader.
func (d *AWSDeployer) placeTemplate(ctx context.Context, body string) (inline, templateURL string, err error) {
	if d.uploader == nil {
		return body, "", nil
	}

	tmp, err := os.CreateTemp("", "stackhand-template-")
	if err != nil {
		return "", "", fmt.Errorf("failed to stage template for upload: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(body); err != nil {
		tmp.Close()
		return "", "", fmt.Errorf("failed to stage template for upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", "", fmt.Errorf("failed to stage template for upload: %w", err)
	}

	url, err := d.uploader.Upload(ctx, tmp.Name())
	if err != nil {
		return "", "", fmt.Errorf("failed to upload template: %w", err)
	}
	return "", url, nil
}
