/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/

// Package deploy drives CloudFormation stack deployments: the changeset
// lifecycle, live event tailing, failure recovery and the direct sync path
// that skips the changeset preview.
package deploy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/stackhand/stackhand/internal/aws"
)

const (
	changeSetPrefix       = "stackhand-deploy"
	stackResourceType     = "AWS::CloudFormation::Stack"
	defaultMaxWaitMinutes = 60
)

// Deployer is the deployment surface the CLI drives.
type Deployer interface {
	HasStack(ctx context.Context, stackName string) (bool, error)
	CreateAndWaitForChangeSet(ctx context.Context, req *Request) (*ChangeSet, error)
	ExecuteChangeSet(ctx context.Context, cs *ChangeSet, disableRollback bool) error
	DeleteChangeSet(ctx context.Context, cs *ChangeSet) error
	WaitForExecute(ctx context.Context, input ExecuteWaitInput) (*Result, error)
	Sync(ctx context.Context, req *Request, mode FailureMode, maxWaitMinutes int) (*Result, error)
	RecoverFailedStack(ctx context.Context, stackName string) error
	DeleteStack(ctx context.Context, stackName string) error
	ValidateTemplate(ctx context.Context, templateBody string) error
}

// TemplateUploader stores a template file in blob storage and returns a URL
// the control plane can fetch it from. Supplied when templates may exceed
// the inline body size limit.
type TemplateUploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// AWSDeployer implements Deployer against AWS CloudFormation.
type AWSDeployer struct {
	client   aws.CloudFormationClient
	uploader TemplateUploader
	out      io.Writer
	styles   *Styles
	logger   *slog.Logger

	changeSetPolicy WaiterPolicy
	stackDelay      time.Duration
	rollbackPolicy  WaiterPolicy
	deletePolicy    WaiterPolicy
	pollInterval    time.Duration
	backoffBase     float64
	maxTailRetries  int

	// deploymentTime is the event-tail watermark of the operation in
	// flight. Each deployment runs single-threaded, so plain assignment
	// is safe.
	deploymentTime time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

var _ Deployer = (*AWSDeployer)(nil)

// NewDeployer creates a deployer writing its event and changeset tables to
// out. Diagnostic logging goes to logger, separate from the table output.
func NewDeployer(client aws.CloudFormationClient, out io.Writer, logger *slog.Logger) *AWSDeployer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AWSDeployer{
		client: client,
		out:    out,
		styles: NewStyles(ShouldUseColour()),
		logger: logger,

		// Changeset creation is fast; poll often. Stack operations are
		// minutes-scale and DescribeStacks is rate limited, so those
		// poll every 30 seconds.
		changeSetPolicy: WaiterPolicy{Delay: 5 * time.Second, MaxAttempts: 120},
		stackDelay:      30 * time.Second,
		rollbackPolicy:  WaiterPolicy{Delay: 30 * time.Second, MaxAttempts: 120},
		deletePolicy:    WaiterPolicy{Delay: 30 * time.Second, MaxAttempts: 120},
		pollInterval:    500 * time.Millisecond,
		backoffBase:     2,
		maxTailRetries:  3,

		now:   time.Now,
		sleep: sleepContext,
	}
}

// SetUploader supplies the blob uploader used to offload oversized templates.
func (d *AWSDeployer) SetUploader(u TemplateUploader) {
	d.uploader = u
}

// SetStyles overrides the output styling.
func (d *AWSDeployer) SetStyles(s *Styles) {
	d.styles = s
}

// HasStack reports whether stackName exists and can be targeted by
// update-style operations. A stack in REVIEW_IN_PROGRESS was created
// implicitly by an earlier CREATE changeset that never executed; it cannot
// be updated, so it counts as absent.
func (d *AWSDeployer) HasStack(ctx context.Context, stackName string) (bool, error) {
	resp, err := d.client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: awssdk.String(stackName),
	})
	if err != nil {
		if isStackNotFound(err, stackName) {
			d.logger.Debug("stack does not exist", "stack", stackName)
			return false, nil
		}
		return false, fmt.Errorf("failed to describe stack %s: %w", stackName, err)
	}
	if len(resp.Stacks) == 0 {
		return false, nil
	}
	return resp.Stacks[0].StackStatus != types.StackStatusReviewInProgress, nil
}

// ValidateTemplate checks templateBody against the CloudFormation
// validation API.
func (d *AWSDeployer) ValidateTemplate(ctx context.Context, templateBody string) error {
	_, err := d.client.ValidateTemplate(ctx, &cloudformation.ValidateTemplateInput{
		TemplateBody: awssdk.String(templateBody),
	})
	if err != nil {
		return fmt.Errorf("template validation failed: %w", err)
	}
	return nil
}

// sleepContext pauses for d or until ctx is cancelled, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
